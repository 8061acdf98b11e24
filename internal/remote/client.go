package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"lexisync/internal/domain"
)

// Gateway is the request/response surface of the remote dictionary store.
type Gateway interface {
	CheckExistence(ctx context.Context, lineageID string) (domain.RemoteState, error)
	Download(ctx context.Context, siteID string) (*Dictionary, error)
	Upload(ctx context.Context, req *UploadRequest) (domain.RemoteState, error)
	DeviceCodeInitiate(ctx context.Context) (*domain.DeviceAuthorization, error)
	DeviceCodePoll(ctx context.Context, deviceCode string) (*domain.Credential, error)
	SetCredential(cred domain.Credential)
}

// Dictionary is a downloaded remote copy: decoded content plus the
// ownership metadata the classifier consumes.
type Dictionary struct {
	Entries domain.TranslationMap `json:"entries"`
	State   domain.RemoteState    `json:"state"`
}

// UploadRequest carries the working copy and its lineage metadata. AsBranch
// records the revision as a contribution to ParentLineage instead of
// replacing the Main. Hash is the client-computed content digest; the
// remote store rejects the upload if it hashes the entries differently.
type UploadRequest struct {
	LineageID     string                `json:"lineage_id"`
	SiteID        string                `json:"site_id,omitempty"`
	ParentLineage string                `json:"parent_lineage,omitempty"`
	AsBranch      bool                  `json:"as_branch"`
	Hash          string                `json:"hash"`
	Entries       domain.TranslationMap `json:"entries"`
}

// UploadResponse is the remote's receipt: where the copy lives and the
// content hash it computed.
type UploadResponse struct {
	SiteID          string `json:"site_id"`
	Hash            string `json:"hash"`
	OwnerName       string `json:"owner_name"`
	ParentOwnerName string `json:"parent_owner_name,omitempty"`
	DependentCount  int    `json:"dependent_count"`
}

type lookupResponse struct {
	Exists          bool   `json:"exists"`
	SiteID          string `json:"site_id"`
	Hash            string `json:"hash"`
	IsOwner         bool   `json:"is_owner"`
	OwnerName       string `json:"owner_name"`
	ParentOwnerName string `json:"parent_owner_name"`
	DependentCount  int    `json:"dependent_count"`
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
}

type tokenResponse struct {
	Status      string `json:"status"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type errorBody struct {
	Error string `json:"error"`
}

type client struct {
	http *resty.Client
}

// NewClient builds a Gateway over the remote store's HTTP API.
func NewClient(baseURL string, timeout time.Duration) Gateway {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &client{http: httpClient}
}

func (c *client) SetCredential(cred domain.Credential) {
	c.http.SetAuthToken(cred.AccessToken)
}

func (c *client) CheckExistence(ctx context.Context, lineageID string) (domain.RemoteState, error) {
	var body lookupResponse
	var apiErr errorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("lineage_id", lineageID).
		SetResult(&body).
		SetError(&apiErr).
		Get("/api/v1/dictionaries/lookup")
	if err != nil {
		return domain.RemoteState{}, &TransientError{Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return domain.RemoteState{Exists: false}, nil
	}
	if resp.IsError() {
		return domain.RemoteState{}, classifyStatus(resp.StatusCode(), apiErr.Error)
	}

	return domain.RemoteState{
		Exists:          body.Exists,
		SiteID:          body.SiteID,
		Hash:            body.Hash,
		IsOwner:         body.IsOwner,
		OwnerName:       body.OwnerName,
		ParentOwnerName: body.ParentOwnerName,
		DependentCount:  body.DependentCount,
	}, nil
}

func (c *client) Download(ctx context.Context, siteID string) (*Dictionary, error) {
	var body Dictionary
	var apiErr errorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&apiErr).
		Get(fmt.Sprintf("/api/v1/dictionaries/%s", siteID))
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), apiErr.Error)
	}

	if body.Entries == nil {
		body.Entries = domain.TranslationMap{}
	}
	return &body, nil
}

func (c *client) Upload(ctx context.Context, req *UploadRequest) (domain.RemoteState, error) {
	var body UploadResponse
	var apiErr errorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&body).
		SetError(&apiErr).
		Post("/api/v1/dictionaries")
	if err != nil {
		return domain.RemoteState{}, &TransientError{Err: err}
	}
	if resp.IsError() {
		return domain.RemoteState{}, classifyStatus(resp.StatusCode(), apiErr.Error)
	}

	return domain.RemoteState{
		Exists:          true,
		SiteID:          body.SiteID,
		Hash:            body.Hash,
		IsOwner:         true,
		OwnerName:       body.OwnerName,
		ParentOwnerName: body.ParentOwnerName,
		DependentCount:  body.DependentCount,
	}, nil
}

func (c *client) DeviceCodeInitiate(ctx context.Context) (*domain.DeviceAuthorization, error) {
	var body deviceCodeResponse
	var apiErr errorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&apiErr).
		Post("/api/v1/auth/device/code")
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), apiErr.Error)
	}

	return &domain.DeviceAuthorization{
		DeviceCode:      body.DeviceCode,
		UserCode:        body.UserCode,
		VerificationURI: body.VerificationURI,
		ExpiresIn:       time.Duration(body.ExpiresIn) * time.Second,
	}, nil
}

func (c *client) DeviceCodePoll(ctx context.Context, deviceCode string) (*domain.Credential, error) {
	var body tokenResponse
	var apiErr errorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"device_code": deviceCode}).
		SetResult(&body).
		SetError(&apiErr).
		Post("/api/v1/auth/device/token")
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), apiErr.Error)
	}

	switch body.Status {
	case "pending":
		return nil, ErrAuthorizationPending
	case "expired":
		return nil, ErrCodeExpired
	case "authorized":
		return &domain.Credential{
			Username:    body.Username,
			AccessToken: body.AccessToken,
			ExpiresAt:   time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
		}, nil
	default:
		return nil, &RejectedError{StatusCode: resp.StatusCode(), Message: fmt.Sprintf("unexpected device flow status %q", body.Status)}
	}
}
