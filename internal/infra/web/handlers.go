package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/infra/media"
	"ai-reel-studio/internal/usecase"
)

const maxUploadBytes = 32 << 20 // 32 MiB across all product photos

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	VideoCount int    `json:"video_count"`
}

type runResponse struct {
	ID        string               `json:"id"`
	Status    string               `json:"status"`
	Outcomes  []model.SceneOutcome `json:"outcomes,omitempty"`
	MergedVid string               `json:"merged_file,omitempty"`
	FinalVid  string               `json:"final_file,omitempty"`
	Captions  string               `json:"captions_file,omitempty"`
	Script    string               `json:"script,omitempty"`
	Error     string               `json:"error,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func toRunResponse(run *model.ReelRun) runResponse {
	return runResponse{
		ID:        run.ID,
		Status:    string(run.Status),
		Outcomes:  run.Outcomes,
		MergedVid: runFileName(run, run.MergedPath),
		FinalVid:  runFileName(run, run.FinalPath),
		Captions:  runFileName(run, run.CaptionsPath),
		Script:    run.Script,
		Error:     run.LastError,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}
}

// runFileName maps a stored artifact path onto the name the files endpoint
// serves it under, relative to the owner's directory.
func runFileName(run *model.ReelRun, p string) string {
	if p == "" {
		return ""
	}
	return path.Join("runs", run.ID, filepath.Base(p))
}

// ===== Accounts =====

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.accounts.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := s.auth.Mint(w, user.ID, user.Username); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username, VideoCount: user.VideoCount})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := s.auth.Mint(w, user.ID, user.Username); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Username: user.Username, VideoCount: user.VideoCount})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	user, err := s.accounts.Get(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Username: user.Username, VideoCount: user.VideoCount})
}

func (s *Server) incrementVideos(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	if err := s.accounts.IncrementVideoCount(r.Context(), claims.Subject); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.board.Leaderboard(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

// ===== Scenes =====

func (s *Server) scenePrompts(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	images, err := s.collectSceneImages(r, claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	prompts, err := s.scenes.ScenePrompts(r.Context(), images)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompts": prompts})
}

func (s *Server) generateScene(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	slot, err := model.ParseSceneSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown scene slot")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	imagePath, err := s.saveSceneImage(r, "image", claims.Subject, slot)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sceneDir := filepath.Join(s.userDir(claims.Subject), "scenes")
	if err := os.MkdirAll(sceneDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to prepare output dir")
		return
	}
	outcome := s.scenes.GenerateScene(r.Context(), model.SceneJob{
		Slot:       slot,
		Prompt:     prompt,
		ImagePath:  imagePath,
		OutputPath: filepath.Join(sceneDir, string(slot)+".mp4"),
	})
	status := http.StatusOK
	if !outcome.Succeeded() {
		status = http.StatusBadGateway
	}
	outcome.OutputPath = filepath.Base(outcome.OutputPath)
	writeJSON(w, status, outcome)
}

func (s *Server) generateAllScenes(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	images, err := s.collectSceneImages(r, claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	prompts := make(map[model.SceneSlot]string, len(model.SceneSlots))
	for _, slot := range model.SceneSlots {
		if p := strings.TrimSpace(r.FormValue(string(slot) + "_prompt")); p != "" {
			prompts[slot] = p
		}
	}
	if len(prompts) == 0 {
		// No prompts supplied: have the director design them first.
		prompts, err = s.scenes.ScenePrompts(r.Context(), images)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	sceneDir := filepath.Join(s.userDir(claims.Subject), "scenes")
	if err := os.MkdirAll(sceneDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to prepare output dir")
		return
	}
	outcomes, err := s.scenes.GenerateAll(r.Context(), prompts, images, sceneDir)
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	for i := range outcomes {
		if outcomes[i].OutputPath != "" {
			outcomes[i].OutputPath = filepath.Base(outcomes[i].OutputPath)
		}
	}
	writeJSON(w, status, map[string]any{"outcomes": outcomes})
}

// ===== Post-production =====

type mergeRequest struct {
	Files []string `json:"files"`
}

func (s *Server) merge(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	outcomes := make([]model.SceneOutcome, 0, len(req.Files))
	for _, name := range req.Files {
		path, err := s.resolveUserFile(claims.Subject, "scenes", name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		outcomes = append(outcomes, model.SceneOutcome{Status: model.SceneStatusSuccess, OutputPath: path})
	}
	outPath := filepath.Join(s.userDir(claims.Subject), "merged.mp4")
	if err := s.reel.Merge(r.Context(), outcomes, outPath); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"merged_file": filepath.Base(outPath)})
}

type mediaRequest struct {
	Video string `json:"video"`
	Audio string `json:"audio,omitempty"`
	SRT   string `json:"srt,omitempty"`
}

func (s *Server) voiceover(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	videoPath, err := s.resolveUserFile(claims.Subject, "", req.Video)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	audioOut := filepath.Join(s.userDir(claims.Subject), "voiceover.mp3")
	script, err := s.reel.Voiceover(r.Context(), videoPath, audioOut)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"audio_file": filepath.Base(audioOut),
		"script":     script,
	})
}

func (s *Server) attachAudio(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	videoPath, err := s.resolveUserFile(claims.Subject, "", req.Video)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	audioPath, err := s.resolveUserFile(claims.Subject, "", req.Audio)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	outPath := filepath.Join(s.userDir(claims.Subject), "with_audio.mp4")
	if err := s.reel.AttachAudio(r.Context(), videoPath, audioPath, outPath); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"video_file": filepath.Base(outPath)})
}

func (s *Server) captions(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	videoPath, err := s.resolveUserFile(claims.Subject, "", req.Video)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	srtOut := filepath.Join(s.userDir(claims.Subject), "captions.srt")
	if err := s.reel.Captions(r.Context(), videoPath, srtOut); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"captions_file": filepath.Base(srtOut)})
}

func (s *Server) burnCaptions(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	videoPath, err := s.resolveUserFile(claims.Subject, "", req.Video)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	srtPath, err := s.resolveUserFile(claims.Subject, "", req.SRT)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	outPath := filepath.Join(s.userDir(claims.Subject), "final.mp4")
	if err := s.reel.BurnCaptions(r.Context(), videoPath, srtPath, outPath); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"video_file": filepath.Base(outPath)})
}

// ===== Runs =====

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	images, err := s.collectSceneImages(r, claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	run, err := s.runs.Enqueue(r.Context(), claims.Subject, images)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toRunResponse(run))
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if run.UserID != claims.Subject {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	runs, err := s.runs.ListByUser(r.Context(), claims.Subject, 20)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

// ===== Files =====

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	dir := s.userDir(claims.Subject)

	var files []string
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".mp4", ".mp3", ".srt":
			if rel, rerr := filepath.Rel(dir, path); rerr == nil {
				files = append(files, rel)
			}
		}
		return nil
	})
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	claims, _ := SessionFromContext(r.Context())
	full, err := s.resolveUserFile(claims.Subject, "", chi.URLParam(r, "*"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	http.ServeFile(w, r, full)
}

// ===== Helpers =====

func (s *Server) userDir(userID string) string {
	return usecase.UserDir(s.cfg.OutputDir, userID)
}

// resolveUserFile maps a client-supplied file name into the user's directory.
// Relative subpaths are allowed (the listing endpoint reports names like
// "runs/<id>/final.mp4"); anything escaping the sandbox is rejected.
func (s *Server) resolveUserFile(userID, subdir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: invalid file name", domain.ErrInvalidArgument)
	}
	full := filepath.Join(s.userDir(userID), subdir, clean)
	if _, err := os.Stat(full); err != nil {
		return "", domain.ErrNotFound
	}
	return full, nil
}

// collectSceneImages pulls one product photo per slot out of the multipart
// form and normalizes each to the vertical-safe canvas.
func (s *Server) collectSceneImages(r *http.Request, userID string) (map[model.SceneSlot]string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form", domain.ErrInvalidArgument)
	}
	images := make(map[model.SceneSlot]string, len(model.SceneSlots))
	for _, slot := range model.SceneSlots {
		if _, _, err := r.FormFile(string(slot)); err != nil {
			continue
		}
		path, err := s.saveSceneImage(r, string(slot), userID, slot)
		if err != nil {
			return nil, err
		}
		images[slot] = path
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: at least one scene image is required", domain.ErrInvalidArgument)
	}
	return images, nil
}

func (s *Server) saveSceneImage(r *http.Request, field, userID string, slot model.SceneSlot) (string, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("%w: missing file %q", domain.ErrInvalidArgument, field)
	}
	defer file.Close()

	uploadDir := filepath.Join(s.userDir(userID), "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", err
	}
	raw := filepath.Join(uploadDir, string(slot)+".upload")
	if err := copyUpload(file, raw); err != nil {
		return "", err
	}
	defer os.Remove(raw)

	out := filepath.Join(uploadDir, string(slot)+".png")
	return media.VerticalSafe(raw, out, s.cfg.Width, s.cfg.Height)
}

func copyUpload(src multipart.File, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, src)
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrNoScenes):
		writeError(w, http.StatusUnprocessableEntity, "no scenes available")
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrExhausted):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
