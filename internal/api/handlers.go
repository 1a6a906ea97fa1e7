package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/actions"
	"github.com/Faultbox/webray-editor/internal/editor"
	"github.com/Faultbox/webray-editor/internal/files"
	"github.com/Faultbox/webray-editor/internal/render"
	"github.com/Faultbox/webray-editor/internal/scene"
	"github.com/Faultbox/webray-editor/internal/storage"
)

// maxBody bounds request bodies; scenes are small documents.
const maxBody = 8 << 20

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.editor.Schema.JSON())
}

func (s *Server) getScene(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Scene-Version", strconv.FormatUint(s.editor.Store.Version(), 10))
	if err := files.Save(w, s.editor.Store.Snapshot()); err != nil {
		s.log.Error("encoding scene", zap.Error(err))
	}
}

// putScene replaces the whole document. An invalid body leaves the scene
// unchanged.
func (s *Server) putScene(w http.ResponseWriter, r *http.Request) {
	if err := files.Load(s.editor.Store, http.MaxBytesReader(w, r.Body, maxBody)); err != nil {
		s.editor.Notifier.Notify(editor.LevelError, editor.MsgInvalidScene)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"version": s.editor.Store.Version()})
}

func (s *Server) addListItem(w http.ResponseWriter, r *http.Request) {
	c, err := scene.ParseCollection(mux.Vars(r)["collection"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	id, err := s.editor.Store.AddListItem(c)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"id": id})
}

func (s *Server) removeListItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := scene.ParseCollection(vars["collection"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	removed, err := s.editor.Store.RemoveListItem(c, id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) getBinding(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	field, err := s.editor.Bind(q.Get("path"), q.Get("property"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, field.Get())
}

type setRequest struct {
	Set json.RawMessage `json:"set"`
}

func (s *Server) setBinding(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	field, err := s.editor.Bind(q.Get("path"), q.Get("property"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var req setRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil || req.Set == nil {
		writeError(w, http.StatusBadRequest, errors.New(`body must be {"set": <value>}`))
		return
	}
	value, err := decodeValue(req.Set)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := field.Set(value); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, field.Get())
}

func decodeValue(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Server) invokeAction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	params := actions.Params{}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	if err := s.editor.Invoke(r.Context(), id, params); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type kernelStatus struct {
	State render.KernelState `json:"state"`
	Job   *uuid.UUID         `json:"job,omitempty"`
	View  editor.ViewMode    `json:"view"`
}

func (s *Server) getKernel(w http.ResponseWriter, r *http.Request) {
	st := kernelStatus{
		State: s.editor.Kernel.State(),
		View:  s.editor.View(),
	}
	if job := s.editor.Kernel.Job(); job != uuid.Nil {
		st.Job = &job
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getOutput(w http.ResponseWriter, r *http.Request) {
	out, err := s.editor.Output()
	if err != nil {
		s.editor.Notifier.Notify(editor.LevelWarning, editor.MsgRenderFirst)
		writeError(w, statusFor(err), err)
		return
	}
	ct := out.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", `attachment; filename="render.png"`)
	_, _ = w.Write(out.Image)
}

func (s *Server) getNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.editor.Notifier.Drain())
}

func (s *Server) library() (storage.Library, error) {
	if s.editor.Library == nil {
		return nil, editor.ErrNoLibrary
	}
	return s.editor.Library, nil
}

func (s *Server) listLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := s.library()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	names, err := lib.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) getLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := s.library()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	data, err := lib.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// putLibrary stores a scene under name after checking that it decodes.
func (s *Server) putLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := s.library()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := files.Decode(bytes.NewReader(data)); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := lib.Put(r.Context(), mux.Vars(r)["name"], data); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
