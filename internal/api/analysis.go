package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/internal/stats"
	"github.com/kbukum/convoview/internal/timeline"
	"github.com/kbukum/convoview/internal/transcript"
	apperrors "github.com/kbukum/convoview/errors"
	"github.com/kbukum/convoview/server"
	"github.com/kbukum/convoview/validation"
)

// FragmentsResponse is a filtered fragment list plus the values the
// filters can take.
type FragmentsResponse struct {
	Items    []transcript.Match `json:"items"`
	Total    int                `json:"total"`
	Classes  []string           `json:"classes"`
	Emotions []string           `json:"emotions"`
	Speakers []int              `json:"speakers"`
}

// RegionsResponse is the timeline of one conversation.
type RegionsResponse struct {
	Mode     timeline.Mode     `json:"mode"`
	Duration float64           `json:"duration"`
	Regions  []timeline.Region `json:"regions"`
}

func (h *Handler) stats(c *gin.Context) {
	_, doc, ok := h.loadDocument(c, false)
	if !ok {
		return
	}
	server.RespondOK(c, stats.Compute(doc, stats.Options{ClassLabel: h.classLabel}))
}

func (h *Handler) fragments(c *gin.Context) {
	speaker, err := validation.OptionalInt("speaker", c.Query("speaker"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	_, doc, ok := h.loadDocument(c, true)
	if !ok {
		return
	}

	frags := doc.Fragments()
	q := transcript.Query{
		Text:    c.Query("q"),
		Class:   c.Query("class"),
		Speaker: speaker,
		Emotion: c.Query("emotion"),
	}
	server.RespondOK(c, FragmentsResponse{
		Items:    transcript.Filter(frags, q, h.classLabel),
		Total:    len(frags),
		Classes:  transcript.Classes(frags, h.classLabel),
		Emotions: transcript.Emotions(frags),
		Speakers: transcript.Speakers(frags),
	})
}

func (h *Handler) regions(c *gin.Context) {
	mode, err := timeline.ParseMode(c.Query("mode"))
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("mode", "mode must be speaker, class or overlap"))
		return
	}
	_, doc, ok := h.loadDocument(c, true)
	if !ok {
		return
	}
	server.RespondOK(c, RegionsResponse{
		Mode:     mode,
		Duration: float64(doc.EndMs()) / 1000,
		Regions:  timeline.Regions(doc, mode, h.classLabel),
	})
}
