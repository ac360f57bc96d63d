package entity

import "time"

// UserAccount is the signed-in user record as returned by the auth
// backend. The gateway never issues credentials itself; it stores this
// record in the app-state store at login and clears it at logout.
type UserAccount struct {
	Id           string
	Username     string
	Email        string
	DisplayName  string
	FirstName    string
	LastName     string
	AccessToken  string
	RefreshToken string
	LoggedInAt   time.Time
}

// PendingPasswordReset keeps the reset link and OTP issued by the auth
// backend between the forgot-password and reset-password calls.
type PendingPasswordReset struct {
	Email     string
	ResetLink string
	Otp       string
	CreatedAt time.Time
}
