package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
)

// ── Recipes ──────────────────────────────────────────────────────

// searchRecipes lists recipes. With q it goes through the engine, which
// narrates empty results; without q it browses the source silently.
func (s *Server) searchRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	q := strings.TrimSpace(c.Query("q"))

	var (
		results []domain.Recipe
		err     error
	)
	if q == "" {
		results, err = s.recipes.Search(ctx, "")
	} else {
		results, err = s.engine.Search(ctx, q)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toSummaries(results)})
}

func (s *Server) getRecipe(c *gin.Context) {
	r, err := s.recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeResponse(r))
}

// ── Cooking ──────────────────────────────────────────────────────

func (s *Server) cookingState(c *gin.Context) {
	c.JSON(http.StatusOK, toStateResponse(s.engine.State()))
}

func (s *Server) chooseRecipe(c *gin.Context) {
	var req chooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := s.engine.ChooseByID(c.Request.Context(), req.RecipeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReplyResponse(reply))
}

func (s *Server) command(kind domain.CommandKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		reply, err := s.engine.Do(c.Request.Context(), domain.Command{Kind: kind})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toReplyResponse(reply))
	}
}

func (s *Server) elaborate(c *gin.Context) {
	reply, err := s.engine.Elaborate(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "text": reply.Narration})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": reply.Narration})
}

func (s *Server) voice(c *gin.Context) {
	var req voiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := s.engine.Hear(c.Request.Context(), req.Transcript)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReplyResponse(reply))
}

// assist answers a question. A request carrying its own recipe goes
// straight to the assistant; otherwise the engine answers about the
// recipe being cooked and narrates the result. Failures still return the
// fallback line in "text".
func (s *Server) assist(c *gin.Context) {
	var req assistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	if req.Recipe != nil {
		if s.assistant == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": domain.ErrAssistantUnavailable.Error(),
				"text":  engine.LineAssistantUnavailable(),
			})
			return
		}
		text, err := s.assistant.Assist(ctx, domain.AssistRequest{
			Recipe:      req.Recipe,
			StepIndex:   req.StepIndex,
			Constraints: req.Constraints,
			Question:    req.Question,
		})
		if err != nil {
			s.log.Error("assist: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "text": engine.LineAssistantUnavailable()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": strings.TrimSpace(text)})
		return
	}

	reply, err := s.engine.Ask(ctx, req.Question, req.Constraints)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "text": reply.Narration})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": reply.Narration})
}

// ── Timers ───────────────────────────────────────────────────────

func (s *Server) listTimers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": toTimerResponses(s.engine.Timers().List())})
}

// createTimer goes through the engine so the start is narrated like a
// voice command.
func (s *Server) createTimer(c *gin.Context) {
	var req timerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := s.engine.Do(c.Request.Context(), domain.Command{
		Kind:     domain.CommandCreateTimer,
		Label:    strings.TrimSpace(req.Label),
		Seconds:  req.Seconds,
		Quantity: float64(req.Seconds),
		Unit:     domain.UnitSeconds,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if reply.Timer == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": reply.Narration})
		return
	}
	c.JSON(http.StatusCreated, toReplyResponse(reply))
}

func (s *Server) toggleTimer(c *gin.Context) {
	t, err := s.engine.Timers().Toggle(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimerResponse(t))
}

func (s *Server) removeTimer(c *gin.Context) {
	if !s.engine.Timers().Remove(c.Param("id")) {
		writeError(c, domain.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearExpired(c *gin.Context) {
	n := s.engine.Timers().ClearExpired()
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

// ── Events ───────────────────────────────────────────────────────

// streamEvents sends narration as server-sent events until the client
// leaves. The browser cancels any utterance in progress before speaking
// a new one.
func (s *Server) streamEvents(c *gin.Context) {
	feed, cancel := s.events.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"ok": true})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case ev, ok := <-feed:
			if !ok {
				return false
			}
			c.SSEvent(ev.Kind, ev)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// ── Pantry ───────────────────────────────────────────────────────

func (s *Server) listPantry(c *gin.Context) {
	items, err := s.pantry.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toPantryResponses(items, s.clock.Now())})
}

func (s *Server) addPantry(c *gin.Context) {
	var req pantryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item := &domain.PantryItem{
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Location:  req.Location,
		ExpiresOn: req.ExpiresOn.Time(),
	}
	if err := s.pantry.Add(c.Request.Context(), item); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPantryResponse(item, s.clock.Now()))
}

func (s *Server) atRiskPantry(c *gin.Context) {
	items, err := s.pantry.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	now := s.clock.Now()
	c.JSON(http.StatusOK, gin.H{"items": toPantryResponses(domain.ExpiringSoon(items, now), now)})
}

func (s *Server) deletePantry(c *gin.Context) {
	if err := s.pantry.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
