package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Identity is the verified subject of a provider ID token
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// TokenVerifier verifies identity provider ID tokens
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.Println("Firebase app and auth client initialized successfully!")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// VerifyIDToken implements TokenVerifier against Firebase Auth
func (a *App) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := a.AuthClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return IdentityFromClaims(token.UID, token.Claims), nil
}

// IdentityFromClaims extracts the profile claims Firebase puts in ID tokens
func IdentityFromClaims(uid string, claims map[string]interface{}) *Identity {
	id := &Identity{UID: uid}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["email_verified"].(bool); ok {
		id.EmailVerified = v
	}
	if v, ok := claims["name"].(string); ok {
		id.Name = v
	}
	if v, ok := claims["picture"].(string); ok {
		id.Picture = v
	}
	return id
}
