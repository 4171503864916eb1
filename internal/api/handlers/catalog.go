package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/palico-bot/internal/api/response"
	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/catalog"
)

// Catalog answers armor queries.
type Catalog interface {
	Resolve(thing, thingType string, rank mhw.Rank) (catalog.Response, error)
	Status() catalog.Status
}

// CatalogHandler handles armor set and piece requests.
type CatalogHandler struct {
	catalog Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// GetStatus returns the data service state.
func (h *CatalogHandler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.catalog.Status())
}

// GetSets returns sets matching ?q= with an optional ?rank=.
func (h *CatalogHandler) GetSets(w http.ResponseWriter, r *http.Request) {
	rank, err := mhw.ParseRank(r.URL.Query().Get("rank"))
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	h.resolve(w, r.URL.Query().Get("q"), mhw.ThingSet, rank)
}

// GetPieces returns pieces of type {type} from sets matching ?q=.
func (h *CatalogHandler) GetPieces(w http.ResponseWriter, r *http.Request) {
	piece, ok := mhw.ParsePieceType(chi.URLParam(r, "type"))
	if !ok {
		response.BadRequest(w, errors.New("unknown piece type"))
		return
	}
	rank, err := mhw.ParseRank(r.URL.Query().Get("rank"))
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	h.resolve(w, r.URL.Query().Get("q"), string(piece), rank)
}

// ResolveRequest is a free-form thing query.
type ResolveRequest struct {
	Thing     string `json:"thing"`
	ThingType string `json:"thing_type"`
	Rank      string `json:"rank"`
}

// Resolve answers a thing query of any supported type.
func (h *CatalogHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.ThingType == "" {
		response.BadRequest(w, errors.New("thing_type is required"))
		return
	}
	rank, err := mhw.ParseRank(req.Rank)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	h.resolve(w, req.Thing, req.ThingType, rank)
}

func (h *CatalogHandler) resolve(w http.ResponseWriter, thing, thingType string, rank mhw.Rank) {
	resp, err := h.catalog.Resolve(thing, thingType, rank)
	if err != nil {
		if errors.Is(err, mhw.ErrUninitialized) {
			response.ServiceUnavailable(w, err)
			return
		}
		response.InternalError(w, err)
		return
	}

	switch resp.Kind {
	case catalog.KindNone:
		response.BadRequest(w, errors.New("unknown thing type "+thingType))
	case catalog.KindNoResults:
		response.NoResults(w, &mhw.NoResultsError{Query: thing, Piece: pieceOf(thingType), Rank: rank}, resp.Suggestions)
	case catalog.KindUnsupported:
		response.NotImplemented(w, errors.New("weapon queries are not supported yet"))
	default:
		response.Success(w, resp)
	}
}

func pieceOf(thingType string) mhw.PieceType {
	p, _ := mhw.ParsePieceType(thingType)
	return p
}
