package location

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	http_utils "github.com/benmeehan/locationsharing/pkg/httpUtils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultEndpoint is the location sharing read endpoint.
	DefaultEndpoint = "https://www.google.com/maps/preview/locationsharing/read"

	// pbParam is the opaque, version-pinned request blob the endpoint requires.
	// It selects the record layout described by SharingLayout.
	pbParam = "!1m7!8m6!1m3!1i14!2i8413!3i5385!2i6!3x4095!2m3!1e0!2sm!3i407105169!3m7!2sen!5e1105!12m4!1e68!2m2!1sset!2sRoadmap!4e1!5m4!1e4!8m2!1e0!1e1!6m9!1e12!2i2!26m1!4b1!30m1!1f1.3953487873077393!39b1!44e1!50e0!23i4111425"
)

// ErrNoCookie is returned when a fetch is attempted without a session cookie.
var ErrNoCookie = errors.New("no session cookie provided")

// SharingProvider reads the locations shared with the account owning a session cookie.
type SharingProvider struct {
	cookie   string          // Raw value of the cookie header
	endpoint string          // Endpoint URL
	client   http_utils.Doer // Transport used to send the request
	logger   zerolog.Logger
}

// NewSharingProvider creates a new SharingProvider. An empty endpoint selects
// DefaultEndpoint and a nil client selects http.DefaultClient.
func NewSharingProvider(cookie, endpoint string, client http_utils.Doer, logger zerolog.Logger) *SharingProvider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SharingProvider{
		cookie:   cookie,
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

// FetchLocations fetches and decodes the locations shared with the cookie's account
// using the default endpoint and HTTP client.
func FetchLocations(ctx context.Context, cookie string) ([]Location, error) {
	return NewSharingProvider(cookie, "", nil, zerolog.Nop()).GetLocations(ctx)
}

// GetLocations issues one request and decodes the response. Transport failures are
// returned as *TransportError and layout mismatches as *MalformedError. A provider
// without a cookie returns ErrNoCookie, which belongs to neither family, before
// any request is made.
func (p *SharingProvider) GetLocations(ctx context.Context) ([]Location, error) {
	if p.cookie == "" {
		return nil, ErrNoCookie
	}

	requestID := uuid.New().String()
	p.logger.Debug().
		Str("request_id", requestID).
		Str("endpoint", p.endpoint).
		Msg("Requesting shared locations")

	body, status, err := http_utils.Get(ctx, p.client, p.endpoint, queryParams(), http.Header{
		"Cookie": []string{p.cookie},
	})
	if err != nil {
		return nil, &TransportError{Op: "GET " + p.endpoint, StatusCode: status, Err: err}
	}

	p.logger.Debug().
		Str("request_id", requestID).
		Int("status", status).
		Int("body_bytes", len(body)).
		Msg("Received shared locations response")

	return DecodeEnvelope(body)
}

func queryParams() url.Values {
	return url.Values{
		"authuser": {"0"},
		"hl":       {"en"},
		"gl":       {"en"},
		"pb":       {pbParam},
	}
}
