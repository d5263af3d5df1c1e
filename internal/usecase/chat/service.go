// Package chat drives one conversational turn:
// classify, then reply directly, ask for a location, run the tools, or show a map.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/analysis"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/mapdata"
	"github.com/kailas-cloud/outing/internal/domain/search/request"
	"github.com/kailas-cloud/outing/internal/domain/session"
	"github.com/kailas-cloud/outing/internal/domain/weather"
	"github.com/kailas-cloud/outing/internal/logger"
	"github.com/kailas-cloud/outing/internal/metrics"
	"github.com/kailas-cloud/outing/internal/usecase/compose"
	"github.com/kailas-cloud/outing/internal/usecase/search"
)

// ReplyType tells the client how to render a reply.
type ReplyType string

const (
	TypeText ReplyType = "text"
	TypeMap  ReplyType = "map"
)

// Tool names reported in Reply.ToolsUsed.
const (
	ToolWeather = "weather"
	ToolSearch  = "search"
	ToolMap     = "map"
)

const (
	outcomeOK      = "ok"
	outcomeApology = "apology"
	intentUnknown  = "unknown"
)

// Reply is the assistant side of a turn.
type Reply struct {
	ConversationID string
	Content        string
	Type           ReplyType
	MapData        *mapdata.MarkerSet
	ToolsUsed      []string
	Intent         analysis.Type
	Usage          Usage
}

// Usage is the upstream model spend of one turn.
type Usage struct {
	EmbeddingTokens  int
	GenerationTokens int
	EmbeddingCalls   int
}

// Config tunes the orchestrator.
type Config struct {
	TopK        int
	TurnTimeout time.Duration
}

// Service is the turn orchestrator.
type Service struct {
	sessions   SessionStore
	classifier Classifier
	search     Searcher
	weather    WeatherService
	composer   Composer
	cfg        Config
	locks      *keyedMutex
	now        func() time.Time
	newID      func() string
	logger     *zap.Logger
}

// New creates the orchestrator.
func New(
	sessions SessionStore, cl Classifier, s Searcher, w WeatherService, c Composer,
	cfg Config, l *zap.Logger,
) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = request.DefaultTopK
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		sessions:   sessions,
		classifier: cl,
		search:     s,
		weather:    w,
		composer:   c,
		cfg:        cfg,
		locks:      newKeyedMutex(),
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     l,
	}
}

// HandleMessage runs one turn. The only error is an empty message; every pipeline
// failure becomes an apology reply. The conversation id is always echoed, minted if empty.
func (s *Service) HandleMessage(ctx context.Context, message, conversationID string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, fmt.Errorf("message is required: %w", domain.ErrInvalidQuery)
	}

	id := strings.TrimSpace(conversationID)
	if id == "" {
		id = s.newID()
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	start := time.Now()
	log := logger.FromContextOr(ctx, s.logger).With(zap.String("conversation_id", id))
	ctx = logger.ContextWithLogger(ctx, log)
	ctx, usage := domain.NewContextWithUsage(ctx)

	reply, err := s.turn(ctx, id, message)
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeApology
		log.Error("Chat turn failed", zap.Error(err))
	}
	reply.ConversationID = id
	emb, gen, calls := usage.Snapshot()
	reply.Usage = Usage{EmbeddingTokens: emb, GenerationTokens: gen, EmbeddingCalls: calls}

	intent := string(reply.Intent)
	if intent == "" {
		intent = intentUnknown
	}
	metrics.ChatTurnsTotal.WithLabelValues(intent, outcome).Inc()
	metrics.ChatTurnDuration.WithLabelValues(intent).Observe(time.Since(start).Seconds())

	log.Info("Chat turn finished",
		zap.String("intent", intent),
		zap.String("outcome", outcome),
		zap.Strings("tools_used", reply.ToolsUsed),
		zap.Int("embedding_tokens", emb),
		zap.Int("generation_tokens", gen),
		zap.Duration("duration", time.Since(start)),
	)
	return reply, nil
}

// ClearHistory deletes the conversation. Unknown ids are not an error.
func (s *Service) ClearHistory(ctx context.Context, conversationID string) error {
	unlock := s.locks.Lock(conversationID)
	defer unlock()
	if err := s.sessions.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount(ctx context.Context) (int, error) {
	n, err := s.sessions.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// turn returns an apology reply together with the cause on failure.
func (s *Service) turn(ctx context.Context, id, message string) (Reply, error) {
	if s.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TurnTimeout)
		defer cancel()
	}

	sess, err := s.sessions.Get(ctx, id)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		sess = session.New(id, s.now())
	case err != nil:
		return apology(""), fmt.Errorf("load session: %w", err)
	}

	a := s.classifier.Classify(message, sess)

	reply, turnErr := s.respond(ctx, message, a, sess)
	if turnErr != nil {
		reply = apology(a.Type)
	}
	reply.Intent = a.Type

	// History is kept for failed turns too so the next turn still sees the question.
	now := s.now()
	sess.Append(session.RoleUser, message, now)
	sess.Append(session.RoleAssistant, reply.Content, now)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return apology(a.Type), errors.Join(turnErr, fmt.Errorf("save session: %w", err))
	}
	return reply, turnErr
}

// respond executes the branch for a. Panics are converted to errors here so the
// turn can still be persisted.
func (s *Service) respond(
	ctx context.Context, message string, a analysis.Analysis, sess *session.Session,
) (reply Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch a.Type {
	case analysis.Emotion:
		return textReply(s.composer.Emotion(a.Emotion)), nil
	case analysis.NeedLocation:
		if a.MapRequested {
			return textReply(compose.MapNoResults), nil
		}
		if a.Nearby {
			return textReply(compose.AskNearby), nil
		}
		return textReply(compose.AskLocation), nil
	case analysis.ShowMap:
		return s.showMap(sess), nil
	case analysis.Ready:
		return s.runTools(ctx, message, a, sess)
	default:
		return Reply{}, fmt.Errorf("unknown analysis type %q", a.Type)
	}
}

func (s *Service) showMap(sess *session.Session) Reply {
	if !sess.HasRetrieval() {
		return textReply(compose.MapNoResults)
	}
	set := mapdata.BuildMarkers(sess.LastRetrieval.Documents)
	if set.IsEmpty() {
		return textReply(s.composer.Map(set))
	}
	return Reply{
		Content:   s.composer.Map(set),
		Type:      TypeMap,
		MapData:   &set,
		ToolsUsed: []string{ToolMap},
	}
}

// runTools fetches weather and facilities concurrently, composes the answer and records
// the retrieval and the resolved location on the session.
func (s *Service) runTools(
	ctx context.Context, message string, a analysis.Analysis, sess *session.Session,
) (Reply, error) {
	filters, err := search.FilterFor(a.Location)
	if err != nil {
		return Reply{}, fmt.Errorf("build filter: %w", err)
	}
	req, err := request.New(message, filters, s.cfg.TopK)
	if err != nil {
		return Reply{}, fmt.Errorf("build search request: %w", err)
	}

	var (
		report weather.Report
		docs   []facility.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(func() { report = s.weather.Lookup(gctx, a.Location, a.Date) }))
	g.Go(guard(func() { docs = s.search.Search(gctx, req) }))
	if err := g.Wait(); err != nil {
		return Reply{}, err
	}

	content := s.composer.Answer(ctx, message, a, report, docs)

	summaries := make([]facility.Document, len(docs))
	for i, d := range docs {
		summaries[i] = d.Summary()
	}
	sess.CachedLocation = a.Location.String()
	sess.LastRetrieval = &session.Retrieval{
		Query:     message,
		Location:  a.Location.String(),
		Documents: summaries,
		At:        s.now(),
	}

	return Reply{
		Content:   content,
		Type:      TypeText,
		ToolsUsed: []string{ToolWeather, ToolSearch},
	}, nil
}

// guard runs fn inside an errgroup task, turning a panic into the task's error.
func guard(fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("tool panic: %v", r)
			}
		}()
		fn()
		return nil
	}
}

func textReply(content string) Reply {
	return Reply{Content: content, Type: TypeText, ToolsUsed: []string{}}
}

func apology(intent analysis.Type) Reply {
	r := textReply(compose.Apology)
	r.Intent = intent
	return r
}
