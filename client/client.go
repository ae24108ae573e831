package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds each HTTP request when Config.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// Config configures the API client. Resolved once at construction; there
// are no runtime feature flags.
type Config struct {
	// BaseURL is the API root, e.g. https://api.advenrent.com.
	BaseURL string
	// Timeout bounds each request including the single retry's attempt.
	Timeout time.Duration
}

// Client is the Advenrent REST API client. All methods are safe for
// concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	session *Session
}

// New creates a client. session may be nil for purely public endpoints.
func New(cfg Config, session *Session) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if session == nil {
		session = NewSession(nil)
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		session: session,
	}, nil
}

// Session returns the session attached to this client.
func (c *Client) Session() *Session {
	return c.session
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// ConnectivityError is a request that got no HTTP response at all.
// Requests failing this way are retried once before surfacing.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// do issues one request, retrying exactly once on connectivity failures.
// HTTP error statuses are never retried. A 401 signs the session out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.attempt(ctx, method, path, query, payload)
	if err != nil {
		var connErr *ConnectivityError
		if !errors.As(err, &connErr) {
			return err
		}
		// One transparent retry, connectivity failures only.
		resp, err = c.attempt(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.SignOut()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body, resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	return resp, nil
}

// errorMessage extracts the server's {"error": ...} body, falling back to
// a generic message.
func errorMessage(body io.Reader, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// =============================================================================
// Auth
// =============================================================================

// User is an account as returned by the auth endpoints.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role"`
}

// AuthResult is the login/register response. The access token is stored
// on the session automatically.
type AuthResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Register creates an account and signs the session in.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, map[string]string{
		"email":    email,
		"password": password,
		"fullName": fullName,
	}, &result)
	if err != nil {
		return AuthResult{}, err
	}
	c.session.SetToken(result.Token)
	return result, nil
}

// Login authenticates and signs the session in.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return AuthResult{}, err
	}
	c.session.SetToken(result.Token)
	return result, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, nil, &user)
	return user, err
}

// UpdateRole sets the caller's marketplace role: renter, rentee or both.
func (c *Client) UpdateRole(ctx context.Context, role string) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPut, "/api/v1/users/role", nil, map[string]string{"role": role}, &user)
	return user, err
}

// ProfileUpdate is a partial profile change; nil fields are untouched.
type ProfileUpdate struct {
	FullName *string `json:"fullName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// UpdateProfile applies a partial profile update.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPut, "/api/v1/users/profile", nil, update, &user)
	return user, err
}

// =============================================================================
// Vehicles
// =============================================================================

// Location is a listing's geographic position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Vehicle is a rental listing.
type Vehicle struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	Description string    `json:"description"`
	Location    *Location `json:"location,omitempty"`
	Features    []string  `json:"features"`
	Image       string    `json:"image"`
	Images      []string  `json:"images"`
}

// SearchFilters are the optional search constraints. No cross-field
// validation is applied; the server interprets them as-is.
type SearchFilters struct {
	Type      string
	MinPrice  *float64
	MaxPrice  *float64
	StartDate string // ISO date, 2006-01-02
	EndDate   string
}

// Geo bounds a search to a radius around a point.
type Geo struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// SearchParams is one page's worth of search input.
type SearchParams struct {
	Query   string
	Filters SearchFilters
	Geo     *Geo
	Page    int
	Limit   int
}

// SearchVehicles fetches one page of listings. The response is a flat
// array; more pages are inferred from the page being full-sized.
func (c *Client) SearchVehicles(ctx context.Context, params SearchParams) ([]Vehicle, error) {
	query := url.Values{}
	if params.Query != "" {
		query.Set("q", params.Query)
	}
	if params.Filters.Type != "" {
		query.Set("type", params.Filters.Type)
	}
	if params.Filters.MinPrice != nil {
		query.Set("minPrice", formatFloat(*params.Filters.MinPrice))
	}
	if params.Filters.MaxPrice != nil {
		query.Set("maxPrice", formatFloat(*params.Filters.MaxPrice))
	}
	if params.Filters.StartDate != "" {
		query.Set("startDate", params.Filters.StartDate)
	}
	if params.Filters.EndDate != "" {
		query.Set("endDate", params.Filters.EndDate)
	}
	if params.Geo != nil {
		query.Set("lat", formatFloat(params.Geo.Latitude))
		query.Set("lng", formatFloat(params.Geo.Longitude))
		query.Set("radius", formatFloat(params.Geo.RadiusKm))
	}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("limit", strconv.Itoa(params.Limit))

	var vehicles []Vehicle
	if err := c.do(ctx, http.MethodGet, "/api/v1/vehicles", query, nil, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// GetVehicle fetches one listing.
func (c *Client) GetVehicle(ctx context.Context, id string) (Vehicle, error) {
	var vehicle Vehicle
	err := c.do(ctx, http.MethodGet, "/api/v1/vehicles/"+url.PathEscape(id), nil, nil, &vehicle)
	return vehicle, err
}

// VehicleImage is an upload payload: base64 data plus its content type,
// or a full data: URI in Data.
type VehicleImage struct {
	Data        string `json:"data"`
	ContentType string `json:"contentType,omitempty"`
}

// VehicleInput is the create-listing payload.
type VehicleInput struct {
	Title        string         `json:"title"`
	Type         string         `json:"type"`
	Price        float64        `json:"price"`
	Description  string         `json:"description,omitempty"`
	Location     *Location      `json:"location,omitempty"`
	Features     []string       `json:"features,omitempty"`
	Images       []VehicleImage `json:"images,omitempty"`
	PrimaryIndex int            `json:"primaryIndex"`
}

// CreateVehicle publishes a listing owned by the caller.
func (c *Client) CreateVehicle(ctx context.Context, input VehicleInput) (Vehicle, error) {
	var vehicle Vehicle
	err := c.do(ctx, http.MethodPost, "/api/v1/vehicles", nil, input, &vehicle)
	return vehicle, err
}

// VehicleUpdate is a partial listing change; nil fields are untouched.
type VehicleUpdate struct {
	Title        *string        `json:"title,omitempty"`
	Type         *string        `json:"type,omitempty"`
	Price        *float64       `json:"price,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Location     *Location      `json:"location,omitempty"`
	Features     []string       `json:"features,omitempty"`
	Images       []VehicleImage `json:"images,omitempty"`
	PrimaryIndex int            `json:"primaryIndex"`
}

// UpdateVehicle applies a partial update to a listing the caller owns.
func (c *Client) UpdateVehicle(ctx context.Context, id string, update VehicleUpdate) (Vehicle, error) {
	var vehicle Vehicle
	err := c.do(ctx, http.MethodPut, "/api/v1/vehicles/"+url.PathEscape(id), nil, update, &vehicle)
	return vehicle, err
}

// =============================================================================
// Bookings & payments
// =============================================================================

// Booking is a trip reservation.
type Booking struct {
	ID          string  `json:"id"`
	VehicleID   string  `json:"vehicleId"`
	RenterID    string  `json:"renterId"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	TotalAmount float64 `json:"totalAmount"`
	Status      string  `json:"status"`
}

// CreateBooking books a vehicle for the date range (ISO dates).
func (c *Client) CreateBooking(ctx context.Context, vehicleID, startDate, endDate string) (Booking, error) {
	var booking Booking
	err := c.do(ctx, http.MethodPost, "/api/v1/bookings", nil, map[string]string{
		"vehicleId": vehicleID,
		"startDate": startDate,
		"endDate":   endDate,
	}, &booking)
	return booking, err
}

// ListBookings returns the caller's bookings, newest first.
func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	err := c.do(ctx, http.MethodGet, "/api/v1/bookings", nil, nil, &bookings)
	return bookings, err
}

// GetBooking returns one booking.
func (c *Client) GetBooking(ctx context.Context, id string) (Booking, error) {
	var booking Booking
	err := c.do(ctx, http.MethodGet, "/api/v1/bookings/"+url.PathEscape(id), nil, nil, &booking)
	return booking, err
}

// CancelBooking cancels the caller's booking.
func (c *Client) CancelBooking(ctx context.Context, id string) (Booking, error) {
	var booking Booking
	err := c.do(ctx, http.MethodPost, "/api/v1/bookings/"+url.PathEscape(id)+"/cancel", nil, nil, &booking)
	return booking, err
}

// PaymentIntent is the payment confirmation handle for the client app.
type PaymentIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// CreatePaymentIntent starts a card payment for a booking.
func (c *Client) CreatePaymentIntent(ctx context.Context, bookingID string, amount float64) (PaymentIntent, error) {
	var intent PaymentIntent
	err := c.do(ctx, http.MethodPost, "/api/v1/payments/create-payment-intent", nil, map[string]interface{}{
		"bookingId": bookingID,
		"amount":    amount,
	}, &intent)
	return intent, err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
