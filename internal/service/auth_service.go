package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"notesnap-gateway/internal/appstate"
	"notesnap-gateway/internal/dto"
	"notesnap-gateway/internal/entity"
	"notesnap-gateway/internal/pkg/logger"
	"notesnap-gateway/internal/pkg/mailer"
	"notesnap-gateway/pkg/authapi"
	"notesnap-gateway/pkg/events"
	pktNats "notesnap-gateway/pkg/nats"
)

var (
	ErrResetNotRequested = errors.New("no password reset was requested for this email")
	ErrInvalidOtp        = errors.New("invalid verification code")
	ErrPasswordMismatch  = errors.New("passwords do not match")
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, userId string) error
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) (*dto.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

type authService struct {
	authClient authapi.IAuthClient
	store      appstate.IStore
	mail       mailer.IEmailService
	eventBus   *pktNats.Publisher
	sysLogger  logger.ILogger
}

func NewAuthService(
	authClient authapi.IAuthClient,
	store appstate.IStore,
	mail mailer.IEmailService,
	eventBus *pktNats.Publisher,
	sysLogger logger.ILogger,
) IAuthService {
	return &authService{
		authClient: authClient,
		store:      store,
		mail:       mail,
		eventBus:   eventBus,
		sysLogger:  sysLogger,
	}
}

// Register forwards the signup to the auth backend. The optional display
// name is split into first and last name the way the backend expects.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	firstName, lastName := splitDisplayName(req.Name)

	err := s.authClient.Register(ctx, &authapi.RegisterPayload{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, err
	}

	s.sysLogger.Info("Auth", "User registered", map[string]interface{}{
		"username": req.Username,
	})

	return &dto.RegisterResponse{
		Username: req.Username,
		Email:    req.Email,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	result, err := s.authClient.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	account := &entity.UserAccount{
		Id:           result.UserId.String(),
		Username:     result.Username,
		Email:        result.Email,
		DisplayName:  displayName(result),
		FirstName:    result.FirstName,
		LastName:     result.LastName,
		AccessToken:  result.Access,
		RefreshToken: result.Refresh,
		LoggedInAt:   time.Now(),
	}
	if err := s.store.SaveUser(ctx, account); err != nil {
		s.sysLogger.Warn("Auth", "Failed to persist user record", map[string]interface{}{
			"user_id": account.Id, "error": err.Error(),
		})
	}

	s.publishEvent(events.TypeUserLogin, account.Id, account.Username)

	return &dto.LoginResponse{
		AccessToken:  result.Access,
		RefreshToken: result.Refresh,
		User: dto.UserDTO{
			Id:          account.Id,
			Username:    account.Username,
			Email:       account.Email,
			DisplayName: account.DisplayName,
		},
	}, nil
}

func (s *authService) Logout(ctx context.Context, userId string) error {
	user, found := s.store.LoadUser(ctx, userId)
	if err := s.store.ClearUser(ctx, userId); err != nil {
		s.sysLogger.Warn("Auth", "Failed to clear user record", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
	}

	username := ""
	if found {
		username = user.Username
	}
	s.publishEvent(events.TypeUserLogout, userId, username)

	return nil
}

// ForgotPassword asks the backend to issue a reset link and OTP, stashes
// both for the follow-up reset call, and mails the OTP out of band. Mail
// delivery failures are logged but never block the flow.
func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) (*dto.ForgotPasswordResponse, error) {
	issued, err := s.authClient.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	err = s.store.SavePendingReset(ctx, &entity.PendingPasswordReset{
		Email:     req.Email,
		ResetLink: issued.ResetLink,
		Otp:       issued.Otp,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	if s.mail != nil {
		go func(email, otp string) {
			if err := s.mail.SendResetOTP(email, otp); err != nil {
				s.sysLogger.Warn("Auth", "Failed to send reset OTP email", map[string]interface{}{
					"email": email, "error": err.Error(),
				})
			}
		}(req.Email, issued.Otp)
	}

	return &dto.ForgotPasswordResponse{
		Message:   issued.Message,
		ResetLink: issued.ResetLink,
		Otp:       issued.Otp,
	}, nil
}

// ResetPassword verifies the OTP against the pending reset and submits
// the new password to the backend's reset link. The pending record is
// consumed on read, so a wrong OTP forces a fresh forgot-password call.
func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	pending, found := s.store.TakePendingReset(ctx, req.Email)
	if !found {
		return ErrResetNotRequested
	}
	if pending.Otp != strings.TrimSpace(req.Otp) {
		return ErrInvalidOtp
	}

	return s.authClient.SubmitPasswordReset(ctx, pending.ResetLink, req.NewPassword, req.ConfirmPassword)
}

func (s *authService) publishEvent(eventType, userId, username string) {
	if s.eventBus == nil {
		return
	}
	event := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"user_id":  userId,
			"username": username,
		},
		OccurredAt: time.Now(),
	}
	if err := s.eventBus.Publish(context.Background(), event); err != nil {
		s.sysLogger.Warn("Auth", "Failed to publish event to bus", map[string]interface{}{
			"type": eventType, "error": err.Error(),
		})
	}
}

func splitDisplayName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func displayName(result *authapi.LoginResult) string {
	full := strings.TrimSpace(result.FirstName + " " + result.LastName)
	if full != "" {
		return full
	}
	return result.Username
}
