package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginMapsAuthFailuresToOneMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"wrong password", http.StatusUnauthorized},
		{"unknown user", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail": "internal wording the user must not see"}`))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			_, err := client.Login(context.Background(), "alex", "wrong")

			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login/", r.URL.Path)

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "alex", body["username"])
		assert.Equal(t, "secret1", body["password"])

		w.Write([]byte(`{"access": "acc", "refresh": "ref", "user_id": 42, "username": "alex", "email": "a@b.com", "first_name": "Alex", "last_name": "J"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Login(context.Background(), "alex", "secret1")

	assert.NoError(t, err)
	assert.Equal(t, "acc", result.Access)
	assert.Equal(t, "42", result.UserId.String())
	assert.Equal(t, "Alex", result.FirstName)
}

func TestLoginRejectsIncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"refresh": "ref"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Login(context.Background(), "alex", "secret1")

	assert.EqualError(t, err, "invalid response from server")
}

func TestRegisterSurfacesFieldErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/register/", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"username": ["A user with that username already exists."]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Register(context.Background(), &RegisterPayload{
		Username: "alex", Email: "a@b.com", Password: "secret1",
	})

	assert.EqualError(t, err, "A user with that username already exists.")
}

func TestRegisterSuccessOn201(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "Alex", body["first_name"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"username": "alex"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Register(context.Background(), &RegisterPayload{
		Username: "alex", Email: "a@b.com", Password: "secret1", FirstName: "Alex",
	})

	assert.NoError(t, err)
}

func TestRequestPasswordReset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/password-reset/", r.URL.Path)
		w.Write([]byte(`{"message": "sent", "reset_link": "https://backend/reset/xyz", "otp": "123456"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	issued, err := client.RequestPasswordReset(context.Background(), "a@b.com")

	assert.NoError(t, err)
	assert.Equal(t, "https://backend/reset/xyz", issued.ResetLink)
	assert.Equal(t, "123456", issued.Otp)
}

func TestRequestPasswordResetRejectsPartialResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "sent"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RequestPasswordReset(context.Background(), "a@b.com")

	assert.EqualError(t, err, "invalid response from server")
}

func TestSubmitPasswordResetPostsToIssuedLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reset/xyz", r.URL.Path)

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "newpass1", body["password"])
		assert.Equal(t, "newpass1", body["confirm_password"])

		w.Write([]byte(`{"message": "ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.SubmitPasswordReset(context.Background(), server.URL+"/reset/xyz", "newpass1", "newpass1")

	assert.NoError(t, err)
}
