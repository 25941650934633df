package pawnAuth_test

import (
	"context"
	"fmt"
	"time"

	pawnAuth "github.com/MrEthical07/pawnAuth"
	"github.com/MrEthical07/pawnAuth/jwt"
	"github.com/MrEthical07/pawnAuth/storage"
)

type exampleAuth struct {
	issuer *jwt.Issuer
}

func (a exampleAuth) SignIn(ctx context.Context, creds pawnAuth.Credentials) (pawnAuth.AuthResponse, error) {
	return a.LogIn(ctx, creds)
}

func (a exampleAuth) LogIn(_ context.Context, creds pawnAuth.Credentials) (pawnAuth.AuthResponse, error) {
	token, err := a.issuer.Issue("u-1", "alice", []string{"clerk"})
	if err != nil {
		return pawnAuth.AuthResponse{}, err
	}
	return pawnAuth.AuthResponse{
		Token: token,
		User:  &pawnAuth.UserProfile{ID: "u-1", Username: "alice", Email: creds.Email},
	}, nil
}

func newExampleAuth() exampleAuth {
	issuer, _ := jwt.NewIssuer(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("example-secret-example-secret-00"),
	})
	return exampleAuth{issuer: issuer}
}

func ExampleManager_LogIn() {
	ctx := context.Background()
	store := storage.NewMemory()

	m, err := pawnAuth.New().
		WithStorage(store).
		WithAuthenticator(newExampleAuth()).
		WithNavigator(pawnAuth.NavigatorFunc(func(path string) { fmt.Println("navigate", path) })).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer m.Close()

	if _, err := m.LogIn(ctx, pawnAuth.Credentials{Email: "alice@pawn.example", Password: "secret1"}); err != nil {
		fmt.Println(err)
		return
	}
	if err := m.WaitReady(ctx); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("authenticated:", m.IsAuthenticated(ctx))
	fmt.Println("user:", m.GetCurrentUser(ctx).Username)

	m.Logout(ctx)
	fmt.Println("authenticated:", m.IsAuthenticated(ctx))
	// Output:
	// authenticated: true
	// user: alice
	// navigate /login
	// authenticated: false
}

func ExampleManager_TokenReady() {
	ctx := context.Background()
	store := storage.NewMemory()

	first, _ := pawnAuth.New().WithStorage(store).WithAuthenticator(newExampleAuth()).Build()
	_, _ = first.SignIn(ctx, pawnAuth.Credentials{Email: "alice@pawn.example", Password: "secret1"})
	first.Close()

	// A new manager over the same storage restores the session on Build.
	second, _ := pawnAuth.New().WithStorage(store).Build()
	defer second.Close()

	sub := second.TokenReady()
	defer sub.Cancel()
	fmt.Println("ready:", <-sub.C())
	// Output:
	// ready: true
}
