package notify

import (
	"net"
	"net/mail"
	"strconv"
)

// EmailOptions configures the sender identity and transport.
type EmailOptions struct {
	Address         string `json:"address" yaml:"address"`
	Name            string `json:"name" yaml:"name"`
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port"`
	Username        string `json:"username" yaml:"username"`
	Password        string `json:"password" yaml:"password"`
	DevelopmentFile string `json:"developmentFile" yaml:"developmentFile"`
}

// DefaultEmailOptions returns the stock sender identity and relay.
func DefaultEmailOptions() EmailOptions {
	return EmailOptions{
		Address:         "noreply@vectorartkit.com",
		Name:            "VectorArtKit",
		Host:            "mail.jeringcommerce.com",
		Port:            587,
		DevelopmentFile: "temp/SmtpTest.txt",
	}
}

func (o EmailOptions) from() *mail.Address {
	return &mail.Address{Name: o.Name, Address: o.Address}
}

func (o EmailOptions) addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}
