package types

import "time"

// AccountProfile identifies a lockbox account reached through a bootstrapper.
type AccountProfile struct {
	Bootstrapper        string    `json:"bootstrapper"`
	Domain              string    `json:"domain"`
	AccountID           string    `json:"account_id"`
	GrantID             string    `json:"grant_id"`
	AccessToken         string    `json:"access_token"`
	AccessSecret        string    `json:"access_secret"`
	AccessSecretExpires time.Time `json:"access_secret_expires"`
}
