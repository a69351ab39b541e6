package service

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-identity/command"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/goliatone/go-identity/query"
	"github.com/goliatone/go-identity/replay"
)

// Service is the entry point for go-identity. It wires the directory
// repository, resolvers, hooks, and command/query facades supplied by the
// host application.
type Service struct {
	cfg         Config
	commands    Commands
	queries     Queries
	replayGuard replay.Guard
}

// Commands exposes the service command handlers.
type Commands struct {
	ProfileSave         *command.ProfileSaveCommand
	AddPublicKey        *command.AddPublicKeyCommand
	RemovePublicKeys    *command.RemovePublicKeysCommand
	SetChainPreferences *command.SetChainPreferencesCommand
	IncrementNonce      *command.IncrementNonceCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	ProfileByName      *query.ProfileByNameQuery
	ProfileByPublicKey *query.ProfileByPublicKeyQuery
	ProfileByHash      *query.ProfileByHashQuery
	NameSearch         *query.NamePrefixSearchQuery
	PreferredKey       *query.PreferredKeyQuery
	ChainKeys          *query.ChainKeysQuery
	Bindings           *query.BindingsQuery
	Nonce              *query.NonceQuery
	PublicKeyForHash   *query.PublicKeyForHashQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun.DB-backed repositories, cached decorators, hooks, etc.).
type Config struct {
	Repository       types.DirectoryRepository
	IdentityResolver types.IdentityResolver
	AvatarResolver   types.AvatarResolver
	FeatureGate      featuregate.FeatureGate
	ReplayGuard      replay.Guard
	Hooks            types.Hooks
	Clock            types.Clock
	IDGenerator      types.IDGenerator
	Logger           types.Logger
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)

	guard := norm.ReplayGuard
	if guard == nil && norm.Repository != nil {
		guard = replay.NewGuard(norm.Repository)
	}
	guard = replay.Ensure(guard)

	s := &Service{
		cfg:         norm,
		replayGuard: guard,
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.AvatarResolver == nil {
		cfg.AvatarResolver = types.NopAvatarResolver{}
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// ReplayGuard exposes the guard used internally so transports can verify
// signed payloads with the same nonce source.
func (s *Service) ReplayGuard() replay.Guard {
	if s == nil {
		return replay.NopGuard()
	}
	return replay.Ensure(s.replayGuard)
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.Repository != nil &&
		s.cfg.IdentityResolver != nil
}

// HealthCheck surfaces missing configuration so upstream transports
// (REST/gRPC/jobs) can fail fast before serving traffic.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Ready() {
		return types.ErrServiceNotReady
	}
	if s.cfg.Repository == nil {
		return types.ErrMissingDirectoryRepository
	}
	if s.cfg.IdentityResolver == nil {
		return types.ErrMissingIdentityResolver
	}
	return nil
}

func (s *Service) buildCommands() Commands {
	return Commands{
		ProfileSave: command.NewProfileSaveCommand(command.ProfileSaveConfig{
			Repository:  s.cfg.Repository,
			Resolver:    s.cfg.IdentityResolver,
			ReplayGuard: s.replayGuard,
			Hooks:       s.cfg.Hooks,
			Clock:       s.cfg.Clock,
		}),
		AddPublicKey: command.NewAddPublicKeyCommand(command.AddPublicKeyConfig{
			Repository:  s.cfg.Repository,
			Resolver:    s.cfg.IdentityResolver,
			Gate:        s.cfg.FeatureGate,
			ReplayGuard: s.replayGuard,
			Hooks:       s.cfg.Hooks,
			Clock:       s.cfg.Clock,
			Logger:      s.cfg.Logger,
		}),
		RemovePublicKeys: command.NewRemovePublicKeysCommand(command.RemovePublicKeysConfig{
			Repository:  s.cfg.Repository,
			ReplayGuard: s.replayGuard,
			Hooks:       s.cfg.Hooks,
			Clock:       s.cfg.Clock,
		}),
		SetChainPreferences: command.NewSetChainPreferencesCommand(command.SetChainPreferencesConfig{
			Repository:  s.cfg.Repository,
			ReplayGuard: s.replayGuard,
			Hooks:       s.cfg.Hooks,
			Clock:       s.cfg.Clock,
		}),
		IncrementNonce: command.NewIncrementNonceCommand(command.IncrementNonceConfig{
			Repository: s.cfg.Repository,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		ProfileByName:      query.NewProfileByNameQuery(s.cfg.Repository, s.cfg.AvatarResolver, s.cfg.Logger),
		ProfileByPublicKey: query.NewProfileByPublicKeyQuery(s.cfg.Repository, s.cfg.AvatarResolver, s.cfg.Logger),
		ProfileByHash:      query.NewProfileByHashQuery(s.cfg.Repository, s.cfg.AvatarResolver, s.cfg.Logger),
		NameSearch:         query.NewNamePrefixSearchQuery(s.cfg.Repository, s.cfg.FeatureGate, s.cfg.Logger),
		PreferredKey:       query.NewPreferredKeyQuery(s.cfg.Repository),
		ChainKeys:          query.NewChainKeysQuery(s.cfg.Repository),
		Bindings:           query.NewBindingsQuery(s.cfg.Repository),
		Nonce:              query.NewNonceQuery(s.cfg.Repository),
		PublicKeyForHash:   query.NewPublicKeyForHashQuery(s.cfg.Repository),
	}
}
