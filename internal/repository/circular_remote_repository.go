package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

// AuthorResolver maps an author display name to a stable id. Remote fixture
// APIs that only carry names rely on it.
type AuthorResolver func(name string) string

// RemoteCircularRepository reads and writes communications through another
// DIMS fixture API (GET/POST /circulars, PUT /circulars/:id).
type RemoteCircularRepository struct {
	baseURL string
	client  *http.Client
	authors AuthorResolver
	logger  *zap.Logger
}

// NewRemoteCircularRepository builds the client. A nil resolver leaves
// missing author ids empty.
func NewRemoteCircularRepository(baseURL string, timeout time.Duration, authors AuthorResolver, logger *zap.Logger) *RemoteCircularRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteCircularRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		authors: authors,
		logger:  logger,
	}
}

type remoteHistory struct {
	Date       time.Time `json:"date"`
	Action     string    `json:"action"`
	ModifiedBy string    `json:"modifiedBy"`
}

// remoteCircular is the camelCase wire shape of the fixture API.
type remoteCircular struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	Type            string          `json:"type"`
	Priority        string          `json:"priority"`
	PublishedByID   string          `json:"publishedById,omitempty"`
	PublishedBy     string          `json:"publishedBy"`
	PublishedAt     time.Time       `json:"publishedAt"`
	AcknowledgedBy  []string        `json:"acknowledgedBy"`
	TotalRecipients int             `json:"totalRecipients"`
	Attachments     []string        `json:"attachments,omitempty"`
	History         []remoteHistory `json:"history,omitempty"`
	TargetRoles     []string        `json:"targetRoles"`
	TargetUserIDs   []string        `json:"targetUserIds"`
}

func (r *RemoteCircularRepository) toModel(w remoteCircular) models.Communication {
	item := models.Communication{
		ID:              w.ID,
		Title:           w.Title,
		Content:         w.Content,
		Category:        models.CommunicationCategory(strings.ToUpper(w.Type)),
		Priority:        models.CommunicationPriority(strings.ToUpper(w.Priority)),
		PublishedByID:   w.PublishedByID,
		PublishedBy:     w.PublishedBy,
		PublishedAt:     w.PublishedAt.UTC(),
		AcknowledgedBy:  append([]string{}, w.AcknowledgedBy...),
		TotalRecipients: w.TotalRecipients,
		Attachments:     append([]string{}, w.Attachments...),
		History:         make([]models.HistoryEntry, 0, len(w.History)),
		TargetRoles:     make([]models.UserRole, 0, len(w.TargetRoles)),
		TargetUserIDs:   append([]string{}, w.TargetUserIDs...),
	}
	if item.PublishedByID == "" && r.authors != nil {
		item.PublishedByID = r.authors(w.PublishedBy)
	}
	for _, h := range w.History {
		item.History = append(item.History, models.HistoryEntry{Date: h.Date.UTC(), Action: h.Action, ModifiedBy: h.ModifiedBy})
	}
	for _, label := range w.TargetRoles {
		if role, ok := models.RoleFromLabel(label); ok {
			item.TargetRoles = append(item.TargetRoles, role)
		}
	}
	return item
}

func fromModel(item models.Communication) remoteCircular {
	w := remoteCircular{
		ID:              item.ID,
		Title:           item.Title,
		Content:         item.Content,
		Type:            strings.ToLower(string(item.Category)),
		Priority:        strings.ToLower(string(item.Priority)),
		PublishedByID:   item.PublishedByID,
		PublishedBy:     item.PublishedBy,
		PublishedAt:     item.PublishedAt,
		AcknowledgedBy:  append([]string{}, item.AcknowledgedBy...),
		TotalRecipients: item.TotalRecipients,
		Attachments:     append([]string{}, item.Attachments...),
		TargetRoles:     make([]string, 0, len(item.TargetRoles)),
		TargetUserIDs:   append([]string{}, item.TargetUserIDs...),
	}
	for _, h := range item.History {
		w.History = append(w.History, remoteHistory{Date: h.Date, Action: h.Action, ModifiedBy: h.ModifiedBy})
	}
	for _, role := range item.TargetRoles {
		w.TargetRoles = append(w.TargetRoles, role.Label())
	}
	return w
}

// List fetches every communication.
func (r *RemoteCircularRepository) List(ctx context.Context) ([]models.Communication, error) {
	var wire []remoteCircular
	if err := r.do(ctx, http.MethodGet, "/circulars", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]models.Communication, 0, len(wire))
	for _, w := range wire {
		out = append(out, r.toModel(w))
	}
	return out, nil
}

// Get finds one communication. The fixture API has no item endpoint, so the
// list is fetched and scanned.
func (r *RemoteCircularRepository) Get(ctx context.Context, id string) (*models.Communication, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, appErrors.ErrNotFound
}

// Create posts item and returns what the remote echoed back.
func (r *RemoteCircularRepository) Create(ctx context.Context, item models.Communication) (models.Communication, error) {
	var echoed remoteCircular
	if err := r.do(ctx, http.MethodPost, "/circulars", fromModel(item), &echoed); err != nil {
		return models.Communication{}, err
	}
	return r.toModel(echoed), nil
}

// Update replaces item on the remote.
func (r *RemoteCircularRepository) Update(ctx context.Context, item models.Communication) (models.Communication, error) {
	var echoed remoteCircular
	if err := r.do(ctx, http.MethodPut, "/circulars/"+item.ID, fromModel(item), &echoed); err != nil {
		return models.Communication{}, err
	}
	return r.toModel(echoed), nil
}

func (r *RemoteCircularRepository) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fetchFailed(fmt.Errorf("encode %s %s: %w", method, path, err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fetchFailed(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("remote circulars request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fetchFailed(err)
	}
	defer resp.Body.Close()

	r.logger.Debug("remote circulars request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound && method != http.MethodGet {
		return appErrors.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fetchFailed(fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fetchFailed(fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return nil
}

func fetchFailed(err error) error {
	return appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
}
