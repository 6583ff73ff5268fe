package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/middleware"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/service"
	transport "github.com/MattMattw/Eventhub---your-life-your-event/internal/transport/http"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/transport/http/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type stubRegistrationService struct {
	registerFn           func(ctx context.Context, eventID, userID int64, quantity int32) (*domain.Registration, error)
	cancelFn             func(ctx context.Context, registrationID, userID int64) (*domain.Registration, error)
	myRegistrationsFn    func(ctx context.Context, userID int64) ([]domain.Registration, error)
	eventRegistrationsFn func(ctx context.Context, eventID, requestingUserID int64) ([]domain.Registration, error)
}

func (s *stubRegistrationService) Register(ctx context.Context, eventID, userID int64, quantity int32) (*domain.Registration, error) {
	return s.registerFn(ctx, eventID, userID, quantity)
}

func (s *stubRegistrationService) Cancel(ctx context.Context, registrationID, userID int64) (*domain.Registration, error) {
	return s.cancelFn(ctx, registrationID, userID)
}

func (s *stubRegistrationService) MyRegistrations(ctx context.Context, userID int64) ([]domain.Registration, error) {
	return s.myRegistrationsFn(ctx, userID)
}

func (s *stubRegistrationService) EventRegistrations(ctx context.Context, eventID, requestingUserID int64) ([]domain.Registration, error) {
	return s.eventRegistrationsFn(ctx, eventID, requestingUserID)
}

type stubEventService struct{}

func (s *stubEventService) CreateEvent(context.Context, int64, domain.CreateEventInput) (*domain.Event, error) {
	return &domain.Event{ID: 1}, nil
}

func (s *stubEventService) ListEvents(context.Context) ([]domain.Event, error) { return nil, nil }

func (s *stubEventService) GetEvent(context.Context, int64) (*domain.Event, error) {
	return nil, repository.ErrEventNotFound
}

func (s *stubEventService) ChangeStatus(context.Context, int64, int64, domain.EventStatus) (*domain.Event, error) {
	return nil, service.ErrInvalidTransition
}

func newTestApp(svc service.RegistrationService) *fiber.App {
	app := fiber.New()
	handlers := &transport.Handlers{
		Event:        handler.NewEventHandler(&stubEventService{}, zap.NewNop()),
		Registration: handler.NewRegistrationHandler(svc, zap.NewNop()),
	}
	transport.RegisterRoutes(app, handlers, middleware.NewAuthMiddleware(testSecret))
	return app
}

func bearerToken(t *testing.T, userID int64) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return "Bearer " + token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateRegistration_Created(t *testing.T) {
	svc := &stubRegistrationService{
		registerFn: func(_ context.Context, eventID, userID int64, quantity int32) (*domain.Registration, error) {
			return &domain.Registration{
				ID:             11,
				EventID:        eventID,
				UserID:         userID,
				TicketQuantity: quantity,
				TotalPrice:     6000,
				Status:         domain.RegistrationStatusConfirmed,
			}, nil
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodPost, "/registrations", bearerToken(t, 7), fiber.Map{
		"eventId":        1,
		"ticketQuantity": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	require.EqualValues(t, 11, body["id"])
	require.EqualValues(t, 6000, body["totalPrice"])
	require.Equal(t, "confirmed", body["status"])
}

func TestCreateRegistration_RequiresAuth(t *testing.T) {
	app := newTestApp(&stubRegistrationService{})

	resp := doRequest(t, app, http.MethodPost, "/registrations", "", fiber.Map{
		"eventId":        1,
		"ticketQuantity": 1,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateRegistration_ValidationErrors(t *testing.T) {
	app := newTestApp(&stubRegistrationService{})

	resp := doRequest(t, app, http.MethodPost, "/registrations", bearerToken(t, 7), fiber.Map{
		"ticketQuantity": 0,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Contains(t, body, "errors")
}

func TestCreateRegistration_EventNotFound(t *testing.T) {
	svc := &stubRegistrationService{
		registerFn: func(context.Context, int64, int64, int32) (*domain.Registration, error) {
			return nil, repository.ErrEventNotFound
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodPost, "/registrations", bearerToken(t, 7), fiber.Map{
		"eventId":        42,
		"ticketQuantity": 1,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRegistration_CapacityExhausted(t *testing.T) {
	svc := &stubRegistrationService{
		registerFn: func(context.Context, int64, int64, int32) (*domain.Registration, error) {
			return nil, &service.CapacityError{Remaining: 2}
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodPost, "/registrations", bearerToken(t, 7), fiber.Map{
		"eventId":        1,
		"ticketQuantity": 5,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "only 2 spots available for this event", body["message"])
}

func TestCreateRegistration_InternalErrorHidesDetail(t *testing.T) {
	svc := &stubRegistrationService{
		registerFn: func(context.Context, int64, int64, int32) (*domain.Registration, error) {
			return nil, context.DeadlineExceeded
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodPost, "/registrations", bearerToken(t, 7), fiber.Map{
		"eventId":        1,
		"ticketQuantity": 1,
	})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "Server error", body["message"])
}

func TestMyRegistrations_EmptyIsArray(t *testing.T) {
	svc := &stubRegistrationService{
		myRegistrationsFn: func(context.Context, int64) ([]domain.Registration, error) {
			return nil, nil
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodGet, "/registrations/my-registrations", bearerToken(t, 7), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(data))
}

func TestCancelRegistration_Success(t *testing.T) {
	svc := &stubRegistrationService{
		cancelFn: func(_ context.Context, registrationID, userID int64) (*domain.Registration, error) {
			return &domain.Registration{
				ID:     registrationID,
				UserID: userID,
				Status: domain.RegistrationStatusCancelled,
			}, nil
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodPatch, "/registrations/11/cancel", bearerToken(t, 7), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "Registration cancelled", body["message"])
}

func TestCancelRegistration_NotOwner(t *testing.T) {
	svc := &stubRegistrationService{
		cancelFn: func(context.Context, int64, int64) (*domain.Registration, error) {
			return nil, service.ErrNotOwner
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodPatch, "/registrations/11/cancel", bearerToken(t, 7), nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCancelRegistration_AlreadyCancelled(t *testing.T) {
	svc := &stubRegistrationService{
		cancelFn: func(context.Context, int64, int64) (*domain.Registration, error) {
			return nil, repository.ErrAlreadyCancelled
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodPatch, "/registrations/11/cancel", bearerToken(t, 7), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelRegistration_NotFound(t *testing.T) {
	svc := &stubRegistrationService{
		cancelFn: func(context.Context, int64, int64) (*domain.Registration, error) {
			return nil, repository.ErrRegistrationNotFound
		},
	}
	app := newTestApp(svc)

	resp := doRequest(t, app, http.MethodPatch, "/registrations/11/cancel", bearerToken(t, 7), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelRegistration_BadID(t *testing.T) {
	app := newTestApp(&stubRegistrationService{})

	resp := doRequest(t, app, http.MethodPatch, "/registrations/abc/cancel", bearerToken(t, 7), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
