package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eteu-technologies/s3-deployer/internal/config"
)

const DefaultDeployMessage = "No deploy message specified."

// Orchestrator runs the deploy pipeline. One Orchestrator may be reused for
// consecutive runs, but never for concurrent ones.
type Orchestrator struct {
	Config   *config.DeployerConfig
	Prompter Prompter
	Stores   StoreFactory
	Notifier Notifier
	Hash     HashFunc
	Now      func() time.Time
}

// Report describes a run that reached Done. Soft holds every soft failure.
type Report struct {
	Run  *Run
	Soft error
}

type pipeline struct {
	*Orchestrator
	opts  config.Options
	run   *Run
	env   config.Environment
	store Store
}

type step struct {
	stage Stage
	fn    func(ctx context.Context) error
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run deploys buildPath. A non-nil error is always a *StageError and means
// the run was aborted; uploads that finished before the abort are kept.
func (o *Orchestrator) Run(ctx context.Context, buildPath string) (report *Report, err error) {
	p := &pipeline{
		Orchestrator: o,
		opts:         o.Config.Options,
		run:          newRun(buildPath, o.now()),
	}
	report = &Report{Run: p.run}

	steps := []step{
		{StageSelectingEnvironment, p.selectEnvironment},
		{StageResolvingVersion, p.resolveVersion},
		{StageWritingArtifacts, p.writeArtifacts},
		{StagePlanningUpload, p.planUpload},
		{StageUploading, p.upload},
		{StageInvalidating, p.invalidate},
		{StageNotifying, p.notify},
	}

	for _, s := range steps {
		p.run.Stage = s.stage
		zap.L().Debug("entering stage", zap.String("run", p.run.ID), zap.Stringer("stage", s.stage))

		serr := s.fn(ctx)
		if serr == nil {
			continue
		}
		if IsSoft(serr) {
			report.Soft = multierr.Append(report.Soft, serr)
			continue
		}

		p.run.Stage = StageAborted
		err = &StageError{Stage: s.stage, Err: serr}
		zap.L().Error("deployment aborted", zap.String("run", p.run.ID), zap.Stringer("stage", s.stage), zap.Error(serr))
		return
	}

	p.run.Stage = StageDone
	return
}

func (p *pipeline) selectEnvironment(ctx context.Context) (err error) {
	if p.opts.BuildPath != "" {
		p.run.BuildPath = p.opts.BuildPath
	}
	if p.run.BuildPath == "" {
		return fmt.Errorf("%w: build path is missing", ErrConfiguration)
	}
	if p.run.BuildPath, err = filepath.Abs(filepath.Clean(p.run.BuildPath)); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if info, serr := os.Stat(p.run.BuildPath); serr != nil || !info.IsDir() {
		return fmt.Errorf("%w: build path %s is not a directory", ErrConfiguration, p.run.BuildPath)
	}

	if len(p.Config.Environments) == 0 {
		return fmt.Errorf("%w: environment configuration is missing", ErrConfiguration)
	}

	var name string
	if name, err = p.Prompter.ChooseEnvironment(ctx, p.Config.EnvironmentNames()); err != nil {
		return fmt.Errorf("failed to choose environment: %w", err)
	}

	env, ok := p.Config.Environments[name]
	if !ok {
		return fmt.Errorf("%w: %w: no %q environment configuration found", ErrConfiguration, ErrEnvironmentMissing, name)
	}
	if err = env.Validate(); err != nil {
		return fmt.Errorf("%w: environment %q: %v", ErrConfiguration, name, err)
	}

	if p.store, err = p.Stores(ctx, env); err != nil {
		return fmt.Errorf("%w: environment %q: %v", ErrConfiguration, name, err)
	}

	p.env = env
	p.run.Environment = name
	zap.L().Info("deploying to environment", zap.String("environment", name), zap.String("bucket", env.Bucket), zap.String("build_path", p.run.BuildPath))

	var message string
	if message, err = p.Prompter.DeployMessage(ctx); err != nil {
		return fmt.Errorf("failed to read deploy message: %w", err)
	}
	if message == "" {
		message = DefaultDeployMessage
	}
	p.run.DeployMessage = message

	return
}

func (p *pipeline) resolveVersion(ctx context.Context) (err error) {
	resolver := &VersionResolver{
		Versioning: p.opts.Versioning,
		Hash:       p.Hash,
		Now:        p.Now,
	}
	if err = resolver.Resolve(ctx, p.run); err != nil {
		return
	}

	if !p.run.Versioned {
		zap.L().Info("versioning is disabled, uploading bare paths")
		return
	}

	zap.L().Info("setting deployment version", zap.String("version", p.run.Version))

	var rewritten int
	if rewritten, err = RewriteEntryFile(filepath.Join(p.run.BuildPath, p.opts.EntryHTML), p.run.Version); err != nil {
		return
	}
	zap.L().Debug("entry document rewritten", zap.String("entry", p.opts.EntryHTML), zap.Int("references", rewritten))

	return
}

func (p *pipeline) writeArtifacts(ctx context.Context) error {
	w := &ArtifactWriter{
		GenerateDeployFile: p.opts.GenerateDeployFile,
		Robots:             p.opts.Robots,
	}
	return w.Write(p.run)
}

func (p *pipeline) planUpload(ctx context.Context) (err error) {
	planner := &UploadPlanner{
		PathGlob:        p.opts.PathGlob,
		EntryHTML:       p.opts.EntryHTML,
		IncludeDotfiles: p.opts.IncludeDotfiles,
	}
	p.run.Plan, err = planner.Plan(p.run)
	return
}

func (p *pipeline) upload(ctx context.Context) (err error) {
	executor := &UploadExecutor{
		Store:       p.store,
		Concurrency: p.opts.Concurrency,
	}

	zap.L().Info("deployer is now running", zap.Int("files", len(p.run.Plan)))
	p.run.Uploaded, err = executor.Execute(ctx, p.run.Plan)
	return
}

func (p *pipeline) invalidate(ctx context.Context) (err error) {
	trigger := &InvalidationTrigger{
		Enabled:        p.opts.InvalidateEntry,
		EntryHTML:      p.opts.EntryHTML,
		DistributionID: p.env.DistributionID,
		Store:          p.store,
	}
	if err = trigger.Invalidate(ctx, p.run); err != nil && !IsSoft(err) {
		return
	}

	zap.L().Info("deployment finished successfully", zap.String("environment", p.run.Environment), zap.String("version", p.run.Version), zap.Int("uploaded", p.run.Uploaded))
	return
}

func (p *pipeline) notify(ctx context.Context) (err error) {
	dispatcher := &NotificationDispatcher{
		Slack:    p.Config.Slack,
		Notifier: p.Notifier,
	}
	_, err = dispatcher.Dispatch(ctx, p.run)
	return
}
