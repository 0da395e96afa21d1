package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// InitFirebase builds the Firebase Admin auth client that backs the admin
// API: the auth middleware verifies bearer ID tokens against it and derives
// the actor identity recorded on disbursements. credPath points at a
// service-account credentials file.
func InitFirebase(credPath string) (*auth.Client, error) {
	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsFile(credPath))
	if err != nil {
		return nil, err
	}
	return app.Auth(context.Background())
}
