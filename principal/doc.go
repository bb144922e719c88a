// Package principal builds the claim sets carried by the two session schemes.
//
// An application principal holds the account id, the security stamp current at
// sign-in and optional enrichment claims. A two-factor-pending principal holds
// only the account id and grants nothing beyond attempting the second factor.
package principal
