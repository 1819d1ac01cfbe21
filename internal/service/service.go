// internal/service/service.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/runo/internal/game"
	"github.com/jason-s-yu/runo/internal/models"
	"github.com/sirupsen/logrus"
)

// Publisher receives a record of every successful mutation.
type Publisher interface {
	Publish(ctx context.Context, action models.GameAction) error
}

// Config holds the housekeeping limits.
type Config struct {
	// MaxGamesPerDay caps creations within one GameTTL window. Zero disables the cap.
	MaxGamesPerDay int
	// GameTTL is how long a game record lives after creation.
	GameTTL time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sends action records to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithSource sets the clock and randomness handed to every game.
func WithSource(src game.Source) Option {
	return func(s *Service) { s.src = src }
}

// WithLogger replaces the default logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = l }
}

// Service applies game operations by id: it loads the game, runs the operation on
// the loaded copy and saves only when the operation succeeded. Operations on the
// same id are serialized.
type Service struct {
	store  Store
	pub    Publisher
	src    game.Source
	cfg    Config
	logger logrus.FieldLogger
	locks  *keyedMutex

	subMu sync.Mutex
	subs  map[string]map[chan struct{}]struct{}
}

func New(store Store, cfg Config, opts ...Option) *Service {
	if cfg.GameTTL <= 0 {
		cfg.GameTTL = 24 * time.Hour
	}
	s := &Service{
		store:  store,
		src:    game.SystemSource(),
		cfg:    cfg,
		logger: logrus.StandardLogger(),
		locks:  newKeyedMutex(),
		subs:   make(map[string]map[chan struct{}]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenGame is the public listing entry for a game still accepting players.
type OpenGame struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Players     int       `json:"players"`
	MinPlayers  int       `json:"min_players"`
	MaxPlayers  int       `json:"max_players"`
	PointsToWin int       `json:"points_to_win"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateGame purges expired games, enforces the creation cap and stores a new game.
// The returned game carries the admin's private id in Players[0].
func (s *Service) CreateGame(ctx context.Context, opts game.Options) (*game.Game, error) {
	if _, err := s.Housekeeping(ctx); err != nil {
		return nil, err
	}
	if s.cfg.MaxGamesPerDay > 0 {
		n, err := s.store.CountCreatedSince(ctx, s.src.Now().Add(-s.cfg.GameTTL))
		if err != nil {
			return nil, fmt.Errorf("count recent games: %w", err)
		}
		if n >= s.cfg.MaxGamesPerDay {
			return nil, ErrDailyLimit
		}
	}

	g, err := game.New(opts, s.src)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save game %s: %w", g.ID, err)
	}
	admin := g.Players[0]
	s.logger.WithFields(logrus.Fields{"game": g.ID, "player": admin.ID}).Info("game created")
	s.publish(ctx, g, admin.ID, models.ActionCreate, map[string]interface{}{
		"name":          g.Name,
		"min_players":   g.MinPlayers,
		"max_players":   g.MaxPlayers,
		"points_to_win": g.PointsToWin,
	})
	return g, nil
}

// JoinGame seats a new player and returns it, private id included.
func (s *Service) JoinGame(ctx context.Context, gameID, name string) (*models.Player, error) {
	var joined *models.Player
	_, err := s.mutate(ctx, gameID, func(g *game.Game) (string, string, map[string]interface{}, error) {
		p, err := g.AddPlayer(name)
		if err != nil {
			return "", "", nil, err
		}
		joined = p.Clone()
		return p.ID, models.ActionJoin, map[string]interface{}{"name": p.Name, "ux_id": p.UxID}, nil
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

func (s *Service) LeaveGame(ctx context.Context, gameID, playerID string) error {
	_, err := s.mutate(ctx, gameID, func(g *game.Game) (string, string, map[string]interface{}, error) {
		return playerID, models.ActionLeave, nil, g.Leave(playerID)
	})
	return err
}

func (s *Service) AdminStartGame(ctx context.Context, gameID, playerID string) error {
	_, err := s.mutate(ctx, gameID, func(g *game.Game) (string, string, map[string]interface{}, error) {
		return playerID, models.ActionStart, map[string]interface{}{"players": len(g.Players)}, g.AdminStart(playerID)
	})
	return err
}

func (s *Service) PlayCard(ctx context.Context, gameID, playerID, cardID string, color models.Color) error {
	_, err := s.mutate(ctx, gameID, func(g *game.Game) (string, string, map[string]interface{}, error) {
		if err := g.PlayCard(playerID, cardID, color); err != nil {
			return "", "", nil, err
		}
		top := g.TopCard()
		payload := map[string]interface{}{"card_id": cardID}
		if top != nil && top.ID == cardID {
			payload["value"] = top.Value
			payload["color"] = top.Color
		}
		return playerID, models.ActionPlay, payload, nil
	})
	return err
}

// PlayerDrawCard draws for the active player. The card is nil when nothing was left.
func (s *Service) PlayerDrawCard(ctx context.Context, gameID, playerID string) (*models.Card, error) {
	var drawn *models.Card
	_, err := s.mutate(ctx, gameID, func(g *game.Game) (string, string, map[string]interface{}, error) {
		card, err := g.PlayerDrawCard(playerID)
		if err != nil {
			return "", "", nil, err
		}
		if card != nil {
			cp := *card
			drawn = &cp
		}
		return playerID, models.ActionDraw, map[string]interface{}{"drew": card != nil}, nil
	})
	if err != nil {
		return nil, err
	}
	return drawn, nil
}

// GetState returns viewerID's masked view of the game.
func (s *Service) GetState(ctx context.Context, gameID, viewerID string) (*game.GameView, error) {
	g, err := s.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return g.StateFor(viewerID)
}

// OpenGames lists games still accepting players, oldest first.
func (s *Service) OpenGames(ctx context.Context) ([]OpenGame, error) {
	games, err := s.store.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	out := make([]OpenGame, 0, len(games))
	for _, g := range games {
		out = append(out, OpenGame{
			ID:          g.ID,
			Name:        g.Name,
			Players:     len(g.Players),
			MinPlayers:  g.MinPlayers,
			MaxPlayers:  g.MaxPlayers,
			PointsToWin: g.PointsToWin,
			CreatedAt:   g.CreatedAt,
		})
	}
	return out, nil
}

// Housekeeping deletes every game created more than GameTTL ago.
func (s *Service) Housekeeping(ctx context.Context) (int, error) {
	n, err := s.store.DeleteCreatedBefore(ctx, s.src.Now().Add(-s.cfg.GameTTL))
	if err != nil {
		return 0, fmt.Errorf("delete expired games: %w", err)
	}
	if n > 0 {
		s.logger.WithField("deleted", n).Info("expired games removed")
	}
	return n, nil
}

// Subscribe returns a channel that receives a value after each change to gameID.
// Notifications coalesce; readers should re-fetch state. Call cancel when done.
func (s *Service) Subscribe(gameID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	if s.subs[gameID] == nil {
		s.subs[gameID] = make(map[chan struct{}]struct{})
	}
	s.subs[gameID][ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs[gameID], ch)
			if len(s.subs[gameID]) == 0 {
				delete(s.subs, gameID)
			}
		})
	}
	return ch, cancel
}

func (s *Service) notify(gameID string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs[gameID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// mutation applies an operation to a loaded game and describes it for the action log.
type mutation func(g *game.Game) (actorID, action string, payload map[string]interface{}, err error)

func (s *Service) mutate(ctx context.Context, gameID string, fn mutation) (*game.Game, error) {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	g.SetSource(s.src)
	wasEnded := g.Ended()

	actorID, action, payload, err := fn(g)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"game": gameID}).WithError(err).Debug("operation refused")
		return nil, err
	}
	if err := s.store.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save game %s: %w", gameID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"game":    gameID,
		"player":  actorID,
		"action":  action,
		"version": g.Version,
	}).Info("game updated")
	s.publish(ctx, g, actorID, action, payload)
	if !wasEnded && g.Ended() {
		s.publish(ctx, g, actorID, models.ActionEnd, map[string]interface{}{"winner": winnerID(g)})
	}
	s.notify(gameID)
	return g, nil
}

func (s *Service) publish(ctx context.Context, g *game.Game, actorID, action string, payload map[string]interface{}) {
	if s.pub == nil {
		return
	}
	record := models.GameAction{
		GameID:      g.ID,
		ActionIndex: g.Version,
		ActorID:     actorID,
		ActionType:  action,
		Payload:     payload,
		Timestamp:   s.src.Now().UnixMilli(),
	}
	if err := s.pub.Publish(ctx, record); err != nil {
		s.logger.WithFields(logrus.Fields{"game": g.ID, "action": action}).WithError(err).Warn("failed to publish game action")
	}
}

func winnerID(g *game.Game) string {
	for _, p := range g.Players {
		if p.GameWinner {
			return p.ID
		}
	}
	return ""
}
