package media

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	service     Service
	query       QueryService
	jwtSecret   []byte
	maxSize     int64
	rdb         *redis.Client
	uploadsRoot string
}

// NewHandler wires the HTTP surface. rdb may be nil to skip the token
// blacklist check; uploadsRoot may be empty when files are not served
// locally.
func NewHandler(service Service, query QueryService, jwtSecret []byte, maxSize int64, rdb *redis.Client, uploadsRoot string) *Handler {
	return &Handler{
		service:     service,
		query:       query,
		jwtSecret:   jwtSecret,
		maxSize:     maxSize,
		rdb:         rdb,
		uploadsRoot: uploadsRoot,
	}
}

type uploadResponse struct {
	MediaAsset
	IsDuplicate bool `json:"is_duplicate"`
}

type listResponse struct {
	Items []MediaAsset `json:"items"`
	Total int64        `json:"total"`
	Skip  int          `json:"skip"`
	Limit int          `json:"limit"`
}

type metadataUpdateRequest struct {
	Folder  *string  `json:"folder"`
	Tags    *TagList `json:"tags"`
	AltText *string  `json:"alt_text"`
	Caption *string  `json:"caption"`
}

type tagsRequest struct {
	Tags TagList `json:"tags"`
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		http.Error(w, "failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	filename := SanitizeFilename(fileHeader.Filename)

	asset, isDuplicate, err := h.service.Ingest(r.Context(), IngestInput{
		Content:          content,
		OriginalFilename: filename,
		Folder:           r.FormValue("folder"),
		Tags:             ParseTags(r.FormValue("tags")),
		AltText:          r.FormValue("alt_text"),
		Caption:          r.FormValue("caption"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if isDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, uploadResponse{MediaAsset: asset, IsDuplicate: isDuplicate})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := SearchFilter{
		Query:    q.Get("query"),
		Folder:   q.Get("folder"),
		Tags:     ParseTags(q.Get("tags")),
		MimeType: q.Get("mime_type"),
	}
	if skip, err := strconv.Atoi(q.Get("skip")); err == nil {
		filter.Offset = skip
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}

	assets, total, err := h.query.Search(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if assets == nil {
		assets = []MediaAsset{}
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}
	writeJSON(w, http.StatusOK, listResponse{
		Items: assets,
		Total: total,
		Skip:  filter.Offset,
		Limit: filter.Limit,
	})
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.query.ListTags(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tags == nil {
		tags = []TagCount{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.query.ListFolders(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if folders == nil {
		folders = []FolderCount{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	asset, err := h.query.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) UpdateMetadata(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	var req metadataUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	asset, err := h.service.UpdateMetadata(r.Context(), id, MetadataUpdate{
		Folder:  req.Folder,
		Tags:    req.Tags,
		AltText: req.AltText,
		Caption: req.Caption,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) ReplaceTags(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	asset, err := h.service.ReplaceTags(r.Context(), id, req.Tags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) AddTags(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	asset, err := h.service.AddTags(r.Context(), id, req.Tags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request, id uuid.UUID, tag string) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	asset, err := h.service.RemoveTag(r.Context(), id, tag)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if _, err := h.ensureAuthorized(r); err != nil {
		writeAuthError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/media", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.Upload(w, r)
		case http.MethodGet:
			h.List(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/media/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/v1/media/")

		switch rest {
		case "tags":
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.ListTags(w, r)
			return
		case "folders":
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.ListFolders(w, r)
			return
		}

		parts := strings.Split(rest, "/")
		id, err := uuid.Parse(parts[0])
		if err != nil {
			http.Error(w, "invalid media id", http.StatusBadRequest)
			return
		}

		switch {
		case len(parts) == 1:
			switch r.Method {
			case http.MethodGet:
				h.Get(w, r, id)
			case http.MethodPatch:
				h.UpdateMetadata(w, r, id)
			case http.MethodDelete:
				h.Delete(w, r, id)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
		case len(parts) == 2 && parts[1] == "tags":
			switch r.Method {
			case http.MethodPut:
				h.ReplaceTags(w, r, id)
			case http.MethodPost:
				h.AddTags(w, r, id)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
		case len(parts) == 3 && parts[1] == "tags":
			if r.Method != http.MethodDelete {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.RemoveTag(w, r, id, parts[2])
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	if h.uploadsRoot != "" {
		fileServer := http.FileServer(http.Dir(h.uploadsRoot))
		mux.Handle(LocalURLPrefix, http.StripPrefix(LocalURLPrefix, fileServer))
	}

	return mux
}

func (h *Handler) ensureAuthorized(r *http.Request) (Requester, error) {
	tokenString, err := h.tokenFromRequest(r)
	if err != nil {
		return Requester{}, err
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Requester{}, errUnauthorized
	}

	if claims.ID == "" || claims.UserID == "" {
		return Requester{}, errUnauthorized
	}

	if h.rdb != nil {
		key := tokenBlacklistPrefix + claims.ID
		exists, redisErr := h.rdb.Exists(r.Context(), key).Result()
		if redisErr != nil {
			return Requester{}, redisErr
		}
		if exists > 0 {
			return Requester{}, errUnauthorized
		}
	}

	return Requester{UserID: claims.UserID, Role: strings.ToLower(claims.Role)}, nil
}

func (h *Handler) tokenFromRequest(r *http.Request) (string, error) {
	if token, err := extractBearerToken(r.Header.Get("Authorization")); err == nil {
		return token, nil
	}

	if cookie, err := r.Cookie(authCookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token, nil
		}
	}

	return "", errUnauthorized
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errUnauthorized
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errUnauthorized
	}

	return token, nil
}

type Requester struct {
	UserID string
	Role   string
}

type authClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

const (
	tokenBlacklistPrefix = "auth:token:blacklist:"
	authCookieName       = "access_token"
)

var errUnauthorized = errors.New("unauthorized")

func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnauthorized) {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrUnsupportedMediaType):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, ErrPayloadTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrStorageUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrInvalidFilename), errors.Is(err, ErrPathTraversal):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
