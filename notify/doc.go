// Package notify delivers the engine's notification emails.
//
// [SMTPSender] talks to a submission server with PLAIN auth. [FileSender]
// appends rendered messages to a local file for development, and [LogSender]
// writes them to a slog logger. All three implement goAccount.EmailSender.
package notify
