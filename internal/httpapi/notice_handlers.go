package httpapi

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"campusboard.org/internal/auth"
	"campusboard.org/internal/media"
	"campusboard.org/internal/notice"
)

type commentRequest struct {
	Text string `json:"text"`
}

type voteRequest struct {
	Direction string `json:"direction"`
}

type updateNoticeRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Branch      *string `json:"branch"`
	Video       *string `json:"video"`
}

// handleNoticesCollection lists the notices visible to the caller.
// Anonymous callers see only fully generic notices; a valid token widens
// the listing to the caller's audience.
func (a *API) handleNoticesCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	var role, branch string
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		role, branch = p.Role, p.Branch
	}
	items, err := a.notices.ListVisible(r.Context(), role, branch)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"notices": items,
	})
}

// handleNoticeResource routes /api/notices/{id}, .../comments and .../vote.
func (a *API) handleNoticeResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/notices/")
	if rest == "" {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.getNotice(w, r, id)
	case "comments":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		a.addComment(w, r, id)
	case "vote":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		a.vote(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getNotice(w http.ResponseWriter, r *http.Request, id string) {
	n, err := a.notices.Get(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"notice":  n,
	})
}

func (a *API) addComment(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := a.notices.Comment(r.Context(), id, p, req.Text)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"comment": c,
	})
}

func (a *API) vote(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var up bool
	switch req.Direction {
	case "up":
		up = true
	case "down":
		up = false
	default:
		writeError(w, http.StatusBadRequest, "direction must be up or down")
		return
	}
	if err := a.notices.Vote(r.Context(), id, up); err != nil {
		a.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleStudentNotices serves /api/student/{branch}/notices.
func (a *API) handleStudentNotices(w http.ResponseWriter, r *http.Request) {
	a.branchNotices(w, r, auth.RoleStudent, "/api/student/")
}

// handleFacultyNotices serves /api/faculty/{branch}/notices.
func (a *API) handleFacultyNotices(w http.ResponseWriter, r *http.Request) {
	a.branchNotices(w, r, auth.RoleFaculty, "/api/faculty/")
}

// branchNotices lists the notices for one role and branch. The caller must
// hold the role and belong to the branch in the path.
func (a *API) branchNotices(w http.ResponseWriter, r *http.Request, role, prefix string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	branch, tail, _ := strings.Cut(rest, "/")
	if branch == "" || tail != "notices" {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	if !auth.ValidBranch(branch) {
		writeError(w, http.StatusBadRequest, "unknown branch")
		return
	}
	p, ok := requireRole(w, r, role)
	if !ok {
		return
	}
	if p.Branch != branch {
		writeError(w, http.StatusForbidden, "branch mismatch")
		return
	}
	items, err := a.notices.ListVisible(r.Context(), role, branch)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"notices": items,
	})
}

// handleAdminPost creates a notice. Accepts JSON, or multipart form data
// with an optional "file" part which is pushed to the media provider.
func (a *API) handleAdminPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	p, ok := requireRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}

	in, err := a.decodeCreateInput(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := a.notices.Create(r.Context(), in, p)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	a.audit.Event(r.Context(), "notice.create",
		zap.String("notice_id", n.ID),
		zap.String("category", n.Category),
		zap.String("branch", n.Branch),
	)
	w.Header().Set("Location", "/api/notices/"+n.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Notice published!",
		"notice":  n,
	})
}

// decodeCreateInput parses either encoding of the create request and
// uploads any attached file.
func (a *API) decodeCreateInput(w http.ResponseWriter, r *http.Request) (notice.CreateInput, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Category    string `json:"category"`
			Branch      string `json:"branch"`
			Image       string `json:"image"`
			Video       string `json:"video"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			return notice.CreateInput{}, err
		}
		return notice.CreateInput{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Branch:      req.Branch,
			Image:       req.Image,
			Video:       req.Video,
		}, nil
	}

	if err := r.ParseMultipartForm(a.maxUploadBytes); err != nil {
		return notice.CreateInput{}, errors.New("invalid multipart body")
	}
	in := notice.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Branch:      r.FormValue("branch"),
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil
		}
		return notice.CreateInput{}, errors.New("invalid file upload")
	}
	defer file.Close()

	asset, err := a.media.Upload(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, media.ErrDisabled) {
			return notice.CreateInput{}, errors.New("media uploads are not configured")
		}
		a.logger.Error("media upload failed", zap.Error(err))
		return notice.CreateInput{}, errors.New("media upload failed")
	}
	in.MediaRef = asset.Ref
	if isVideo(header.Filename) {
		in.Video = asset.URL
	} else {
		in.Image = asset.URL
	}
	return in, nil
}

// handleAdminPostResource updates or deletes /api/admin/post/{id}.
func (a *API) handleAdminPostResource(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/post/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		a.updateNotice(w, r, id)
	case http.MethodDelete:
		a.deleteNotice(w, r, id)
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) updateNotice(w http.ResponseWriter, r *http.Request, id string) {
	var req updateNoticeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := a.notices.Update(r.Context(), id, notice.Update{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Branch:      req.Branch,
		Video:       req.Video,
	})
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	a.audit.Event(r.Context(), "notice.update", zap.String("notice_id", id))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Notice updated!",
		"notice":  n,
	})
}

func (a *API) deleteNotice(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.notices.Delete(r.Context(), id); err != nil {
		a.handleDomainError(w, err)
		return
	}
	a.audit.Event(r.Context(), "notice.delete", zap.String("notice_id", id))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Notice deleted!",
	})
}

// handleAdminNotices lists every notice regardless of audience.
func (a *API) handleAdminNotices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	items, err := a.notices.ListAll(r.Context())
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"notices": items,
	})
}

// handleAdminDashboard reports account and notice counts.
func (a *API) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	ctx := r.Context()
	students, err := a.auth.Count(ctx, auth.RoleStudent)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	faculty, err := a.auth.Count(ctx, auth.RoleFaculty)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	admins, err := a.auth.Count(ctx, auth.RoleAdmin)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	noticeCount, err := a.notices.Count(ctx)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"students": students,
		"faculty":  faculty,
		"admins":   admins,
		"notices":  noticeCount,
	})
}

func isVideo(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4", ".mov", ".webm", ".mkv", ".avi":
		return true
	}
	return false
}
