package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/blesswinsamuel/sql-user-backend/internal/crypto"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
	"github.com/blesswinsamuel/sql-user-backend/internal/query"
)

// handleVerifyConnection dials the database with the posted parameters, or
// the saved ones when the body is empty.
func (s *Server) handleVerifyConnection(w http.ResponseWriter, r *http.Request) {
	cp := query.ConnParamsFromProperties(s.props)

	var posted struct {
		Driver   string `json:"db.driver"`
		Hostname string `json:"db.hostname"`
		Database string `json:"db.database"`
		Username string `json:"db.username"`
		Password string `json:"db.password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&posted); err == nil {
		if posted.Driver != "" {
			cp = query.ConnParams{
				Driver:   posted.Driver,
				Hostname: posted.Hostname,
				Database: posted.Database,
				Username: posted.Username,
				Password: posted.Password,
			}
		}
	}

	if err := query.Verify(r.Context(), cp); err != nil {
		s.logger.Debug().Err(err).Msg("connection verification failed")
		writeError(w, s.tr.L("Error connecting to the database:")+" "+err.Error(), http.StatusOK)
		return
	}
	writeMessage(w, s.tr.L("Successfully connected to the database."))
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.data.Tables(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("table autocomplete failed")
		writeSuccess(w, []string{})
		return
	}
	writeSuccess(w, tables)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	columns, err := s.data.Columns(r.Context(), table)
	if err != nil {
		s.logger.Error().Err(err).Msg("column autocomplete failed")
		writeSuccess(w, []string{})
		return
	}
	writeSuccess(w, columns)
}

// maskedKeys are never echoed back to the admin UI.
var maskedKeys = map[string]bool{properties.DBPassword: true}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	values := s.props.All()
	for key := range values {
		if maskedKeys[key] {
			values[key] = ""
		}
	}
	writeSuccess(w, values)
}

// handleSaveSettings persists the posted values. Only changed keys are
// written; a boolean key missing from the payload means unchecked.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var posted map[string]string
	if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
		writeError(w, s.tr.L("Invalid request body."), http.StatusBadRequest)
		return
	}

	for _, key := range properties.Keys() {
		value, present := posted[key]
		current, _ := s.props.String(key)

		if properties.IsBoolean(key) {
			desired := properties.FalseValue
			if present && value == properties.TrueValue {
				desired = properties.TrueValue
			}
			if desired == current {
				continue
			}
			value = desired
		} else {
			if !present || value == current {
				continue
			}
		}

		if err := s.props.Set(key, value); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("unable to save property")
			writeError(w, s.tr.L("Unable to save properties."), http.StatusInternalServerError)
			return
		}
		s.logger.Info().Str("key", key).Msg("property has been set")
	}

	if s.reload != nil {
		s.reload()
	}
	writeMessage(w, s.tr.L("Properties has been saved."))
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	s.logger.Info().Msg("cache memory has been cleared")
	writeMessage(w, s.tr.L("Cache memory has been cleared."))
}

type algorithmInfo struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Params []crypto.Param `json:"params"`
}

// handleAlgorithms lists the supported password schemes with their tunable
// parameters, for the settings form.
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	infos := make([]algorithmInfo, 0, len(crypto.IDs()))
	for _, id := range crypto.IDs() {
		algorithm, err := crypto.New(id, nil)
		if err != nil {
			continue
		}
		infos = append(infos, algorithmInfo{
			ID:     id,
			Name:   algorithm.DisplayName(),
			Params: algorithm.Params(),
		})
	}
	writeSuccess(w, infos)
}

func (s *Server) handleAlgorithmParams(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	algorithm, err := crypto.New(id, nil)
	if err != nil {
		writeError(w, s.tr.L("Unknown hash algorithm."), http.StatusNotFound)
		return
	}
	writeSuccess(w, algorithm.Params())
}
