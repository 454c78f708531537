package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/passtalk/passtalk/internal/ai"
	"github.com/passtalk/passtalk/internal/store"
	"github.com/passtalk/passtalk/pkg/logger"
)

// SettingsHandler handles provider settings and the connection test.
type SettingsHandler struct {
	settings *store.Settings
	secrets  *store.Secrets
	client   *ai.Client
	logger   *logger.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings *store.Settings, secrets *store.Secrets, client *ai.Client, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		secrets:  secrets,
		client:   client,
		logger:   log,
	}
}

// settingsRequest carries provider settings. The API key travels write-only;
// reads report only whether one is saved.
type settingsRequest struct {
	Endpoint     string `json:"endpoint"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	APIKey       string `json:"api_key,omitempty"`
}

type settingsResponse struct {
	Endpoint     string `json:"endpoint"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	HasAPIKey    bool   `json:"has_api_key"`
}

// Get handles GET /api/v1/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	endpoint, err := h.settings.Get(ai.EndpointKey)
	if err != nil {
		h.logger.Error("failed to read settings")
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	model, _ := h.settings.Get(ai.ModelKey)
	prompt, _ := h.settings.Get(ai.SystemPromptKey)
	apiKey, _ := h.secrets.Get(ai.APIKeyKey)

	writeJSON(w, http.StatusOK, settingsResponse{
		Endpoint:     endpoint,
		Model:        model,
		SystemPrompt: prompt,
		HasAPIKey:    apiKey != "",
	})
}

// Update handles PUT /api/v1/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.save(&req); err != nil {
		h.logger.Error("failed to save settings")
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// Test handles POST /api/v1/settings/test. Testing means save-then-verify:
// the submitted settings are persisted first, then the client re-reads them
// and runs a minimal exchange.
func (h *SettingsHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.save(&req); err != nil {
		h.logger.Error("failed to save settings")
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	result, err := h.client.TestConnection(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":     false,
			"detail": testFailureDetail(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"detail": result,
	})
}

func (h *SettingsHandler) save(req *settingsRequest) error {
	if err := h.settings.Set(ai.EndpointKey, req.Endpoint); err != nil {
		return err
	}
	if err := h.settings.Set(ai.ModelKey, req.Model); err != nil {
		return err
	}
	if err := h.settings.Set(ai.SystemPromptKey, req.SystemPrompt); err != nil {
		return err
	}
	if req.APIKey != "" {
		if err := h.secrets.Set(ai.APIKeyKey, req.APIKey); err != nil {
			return err
		}
	}
	return nil
}

func testFailureDetail(err error) string {
	var httpErr *ai.HTTPError
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return "请先填写并保存 API Key"
	case errors.As(err, &httpErr):
		return httpErr.Error()
	default:
		return "连接失败"
	}
}
