// Package domain holds the qidicom use cases: walking and grouping image
// trees, and writing edited copies of them.
package domain

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/inconshreveable/log15"
	"github.com/mouse-blink/qidicom/internal/adapter"
	"github.com/mouse-blink/qidicom/internal/controller"
	m "github.com/mouse-blink/qidicom/internal/model"
)

// HierarchyArgs are the inputs of Workflow.Hierarchy.
type HierarchyArgs struct {
	Root m.Path
	// Index, when set, is where the hierarchy is exported as gzipped TSV.
	Index m.Path
	// FromIndex, when set, lists a previously exported index instead of
	// walking Root.
	FromIndex m.Path
	// Exclude holds regular expressions for paths, relative to Root, that
	// are not read.
	Exclude []string
}

// GroupArgs are the inputs of Workflow.Group.
type GroupArgs struct {
	Root m.Path
	Tag  string
	// Files, when non-empty, are grouped instead of walking Root.
	Files   []m.Path
	Exclude []string
}

// EditArgs are the inputs of Workflow.Edit.
type EditArgs struct {
	Source m.Path
	Dest   m.Path
	// SpecFile is an optional HCL edit spec.
	SpecFile m.Path
	// Set holds literal edits given on the command line. They override
	// SpecFile entries for the same tag.
	Set map[string]string
	// Unique writes clashing basenames as " - dupN" copies instead of
	// overwriting.
	Unique bool
	// Journal is an optional database recording every completed write.
	Journal m.Path
	// Resume skips sources the journal shows as written and unchanged.
	Resume  bool
	Exclude []string
}

// JournalOpener opens the journal at a path.
type JournalOpener func(path m.Path) (adapter.JournalStore, error)

// Workflow defines the use cases behind the command line.
type Workflow interface {
	Hierarchy(ctx context.Context, args HierarchyArgs) error
	Group(ctx context.Context, args GroupArgs) error
	Edit(ctx context.Context, args EditArgs) error
}

type workflow struct {
	fs          adapter.SourceFSAdapter
	walker      *Walker
	grouper     Grouper
	pipeline    *Pipeline
	specs       adapter.EditSpecLoader
	index       adapter.IndexWriter
	openJournal JournalOpener
	ui          controller.UI
	log         log15.Logger
}

// NewWorkflow creates a new Workflow instance with the provided adapters.
func NewWorkflow(
	fs adapter.SourceFSAdapter,
	tags adapter.TagAccessor,
	specs adapter.EditSpecLoader,
	index adapter.IndexWriter,
	openJournal JournalOpener,
	ui controller.UI,
	logger log15.Logger,
) Workflow {
	logger = quietLogger(logger)

	return &workflow{
		fs:          fs,
		walker:      NewWalker(fs, tags, logger),
		grouper:     NewGrouper(tags, logger),
		pipeline:    NewPipeline(fs, tags, logger),
		specs:       specs,
		index:       index,
		openJournal: openJournal,
		ui:          ui,
		log:         logger,
	}
}

// Hierarchy lists every image under the root, or in an exported index,
// sorted by hierarchy path.
func (w *workflow) Hierarchy(ctx context.Context, args HierarchyArgs) error {
	rules, err := NewExcludeRules(args.Root, args.Exclude)
	if err != nil {
		return err
	}

	var instances []m.Instance

	if args.FromIndex != "" {
		instances, err = w.indexedInstances(args.FromIndex, rules)
	} else {
		instances, err = w.walkedInstances(ctx, args.Root, rules)
	}

	if err != nil {
		return err
	}

	sortInstances(instances)

	if args.Index != "" {
		if err := w.index.WriteIndex(args.Index, instances); err != nil {
			return fmt.Errorf("writing index: %w", err)
		}

		w.log.Info("hierarchy index written", "path", args.Index, "instances", len(instances))
	}

	return w.ui.DisplayHierarchy(instances)
}

func (w *workflow) walkedInstances(ctx context.Context, root m.Path, rules *ExcludeRules) ([]m.Instance, error) {
	var instances []m.Instance

	for inst, err := range w.walker.Excluding(rules.Skip()).Instances(root) {
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		instances = append(instances, inst)
	}

	return instances, nil
}

func (w *workflow) indexedInstances(path m.Path, rules *ExcludeRules) ([]m.Instance, error) {
	indexed, err := w.index.ReadIndex(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	instances := indexed[:0]

	for _, inst := range indexed {
		if !rules.Excludes(inst.File) {
			instances = append(instances, inst)
		}
	}

	w.log.Debug("hierarchy read from index", "path", path, "instances", len(instances))

	return instances, nil
}

// Group partitions images by one tag.
func (w *workflow) Group(ctx context.Context, args GroupArgs) error {
	info, err := adapter.LookupTag(args.Tag)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	rules, err := NewExcludeRules(args.Root, args.Exclude)
	if err != nil {
		return err
	}

	var groups m.GroupMapping

	if len(args.Files) > 0 {
		files := make([]m.Path, 0, len(args.Files))
		for _, f := range args.Files {
			if !rules.Excludes(f) {
				files = append(files, f)
			}
		}

		groups = w.grouper.Group(args.Tag, files)
	} else {
		groups, err = w.walker.Excluding(rules.Skip()).GroupBy(args.Tag, args.Root)
		if err != nil {
			return err
		}
	}

	return w.ui.DisplayGroups(info.Keyword, groups)
}

// Edit copies every image under Source to Dest with the requested edits
// applied. Sources are never modified. Cancelling ctx stops the run between
// files.
func (w *workflow) Edit(ctx context.Context, args EditArgs) (err error) {
	spec, err := w.buildSpec(args)
	if err != nil {
		return err
	}

	rules, err := NewExcludeRules(args.Source, args.Exclude)
	if err != nil {
		return err
	}

	editor := NewEditor(spec)

	var journal adapter.JournalStore

	if args.Journal != "" {
		journal, err = w.openJournal(args.Journal)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}

		defer func() {
			var errm *multierror.Error

			errm = multierror.Append(errm, err)
			errm = multierror.Append(errm, journal.Close())

			err = errm.ErrorOrNil()
		}()
	}

	dest, err := w.destination(args, journal)
	if err != nil {
		return err
	}

	run := &editRun{w: w, journal: journal, id: uuid.NewString()}

	resume := args.Resume && journal != nil

	opts := []EditOption{WithRunID(run.id), OnWritten(run.written)}
	if rules != nil || resume {
		opts = append(opts, WithSkip(func(source m.Path) bool {
			if rules.Excludes(source) {
				return true
			}

			return resume && run.alreadyWritten(source)
		}))
	}

	w.log.Info("edit started", "run", run.id, "source", args.Source, "dest", args.Dest, "tags", len(spec))

	seq, err := w.pipeline.Edit(args.Source, dest, opts...)
	if err != nil {
		return err
	}

	err = run.consume(ctx, seq, editor)

	w.log.Info("edit finished", "run", run.id, "written", run.stats.Written, "skipped", run.stats.Skipped)

	if uiErr := w.ui.DisplayEditSummary(run.stats, err); uiErr != nil && err == nil {
		err = uiErr
	}

	return err
}

func (w *workflow) buildSpec(args EditArgs) (m.EditSpec, error) {
	spec := m.EditSpec{}

	if args.SpecFile != "" {
		loaded, err := w.specs.Load(args.SpecFile)
		if err != nil {
			return nil, err
		}

		spec = loaded
	}

	for name, value := range args.Set {
		if _, err := adapter.LookupTag(name); err != nil {
			return nil, err
		}

		spec[name] = m.Literal{Value: value}
	}

	if len(spec) == 0 {
		w.log.Warn("no edits given, files will be copied unchanged")
	}

	return spec, nil
}

func (w *workflow) destination(args EditArgs, journal adapter.JournalStore) (m.Destination, error) {
	if !args.Unique {
		return m.FixedDirectory{Dir: args.Dest}, nil
	}

	if err := w.fs.RequireDir(args.Dest); err != nil {
		return nil, fmt.Errorf("destination %s: %w", args.Dest, err)
	}

	namer := NewUniqueNamer(args.Dest)

	if journal != nil {
		recs, err := journal.Records()
		if err != nil {
			return nil, fmt.Errorf("reading journal: %w", err)
		}

		for _, rec := range recs {
			namer.Claim(rec.Source, rec.Dest)
		}
	}

	return namer.Mapper(), nil
}

// editRun carries the per-run state of Workflow.Edit.
type editRun struct {
	w          *workflow
	journal    adapter.JournalStore
	id         string
	stats      m.EditStats
	journalErr error
}

func (r *editRun) consume(ctx context.Context, seq iter.Seq2[m.TagView, error], editor *Editor) error {
	for view, err := range seq {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if r.journalErr != nil {
			return r.journalErr
		}

		r.stats.Total++

		if err := editor.Edit(view); err != nil {
			return err
		}
	}

	return r.journalErr
}

func (r *editRun) written(rec m.WriteRecord) {
	r.stats.Written++
	r.stats.Bytes += rec.Bytes

	if r.journal != nil {
		hash, err := r.w.fs.HashFile(rec.Source)
		if err != nil {
			r.w.log.Warn("could not hash source", "path", rec.Source, "err", err)
		}

		rec.Hash = hash

		if err := r.journal.Record(rec); err != nil {
			r.journalErr = fmt.Errorf("recording %s: %w", rec.Source, err)
		}
	}

	r.w.ui.DisplayEditProgress(rec)
}

func (r *editRun) alreadyWritten(source m.Path) bool {
	rec, ok, err := r.journal.Written(source)
	if err != nil {
		r.w.log.Warn("could not read journal", "path", source, "err", err)

		return false
	}

	if !ok || rec.Hash == "" {
		return false
	}

	hash, err := r.w.fs.HashFile(source)
	if err != nil || hash != rec.Hash {
		return false
	}

	r.stats.Skipped++

	return true
}

func sortInstances(instances []m.Instance) {
	sort.Slice(instances, func(i, j int) bool {
		a, b := instances[i].Hierarchy, instances[j].Hierarchy

		switch {
		case a.Subject != b.Subject:
			return a.Subject < b.Subject
		case a.Study != b.Study:
			return a.Study < b.Study
		case a.Series != b.Series:
			return a.Series < b.Series
		case a.Instance != b.Instance:
			return a.Instance < b.Instance
		default:
			return instances[i].File < instances[j].File
		}
	})
}
