package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/moby/sys/atomicwriter"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
)

// DefaultLockTimeout bounds how long a mutation waits for another spawn-ctl
// process to release the registry.
const DefaultLockTimeout = 10 * time.Second

// Registry persists instance records in a single JSON document.
// Mutations take an advisory file lock and replace the document atomically.
type Registry struct {
	paths       *config.Paths
	defaultHint int
	lockTimeout time.Duration
	now         func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultHint sets the nextPort value of a fresh or reset document.
func WithDefaultHint(port int) Option {
	return func(r *Registry) {
		r.defaultHint = port
	}
}

// WithLockTimeout sets how long mutations wait for the lock.
func WithLockTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.lockTimeout = d
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New returns a registry stored under paths.
func New(paths *config.Paths, opts ...Option) *Registry {
	r := &Registry{
		paths:       paths,
		defaultHint: protocol.DefaultPortHint,
		lockTimeout: DefaultLockTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the registry document path.
func (r *Registry) Path() string {
	return r.paths.RegistryFile
}

// DefaultHint returns the nextPort value of a fresh document.
func (r *Registry) DefaultHint() int {
	return r.defaultHint
}

// Load reads the whole document. A missing file yields a fresh document.
func (r *Registry) Load() (*Document, error) {
	data, err := os.ReadFile(r.paths.RegistryFile)
	if err != nil {
		if os.IsNotExist(err) {
			return newDocument(r.defaultHint), nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	doc := newDocument(r.defaultHint)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", r.paths.RegistryFile, err)
	}
	if doc.NextPort == 0 {
		doc.NextPort = r.defaultHint
	}
	return doc, nil
}

// save replaces the registry file atomically.
func (r *Registry) save(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(r.paths.RegistryFile), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	data = append(data, '\n')

	if err := atomicwriter.WriteFile(r.paths.RegistryFile, data, 0644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

// update runs fn over the current document while holding the registry lock,
// then saves the result. fn returning an error aborts without writing.
func (r *Registry) update(fn func(doc *Document) error) error {
	if err := os.MkdirAll(filepath.Dir(r.paths.RegistryFile), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	lock := flock.New(r.paths.RegistryFile + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), r.lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("locking registry: %w", err)
	}
	if !locked {
		return fmt.Errorf("registry is locked by another spawn-ctl process")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.Warn("failed to release registry lock", "error", err)
		}
	}()

	doc, err := r.Load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return r.save(doc)
}

// Get returns the record for name.
func (r *Registry) Get(name string) (*Record, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	rec, ok := doc.Instances[name]
	if !ok {
		return nil, errors.NotFound(name)
	}
	return rec, nil
}

// Exists reports whether name is registered.
func (r *Registry) Exists(name string) (bool, error) {
	doc, err := r.Load()
	if err != nil {
		return false, err
	}
	_, ok := doc.Instances[name]
	return ok, nil
}

// List returns all records keyed by name.
func (r *Registry) List() (map[string]*Record, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	return doc.Instances, nil
}

// Sorted returns all records ordered by name.
func (r *Registry) Sorted() ([]*Record, error) {
	instances, err := r.List()
	if err != nil {
		return nil, err
	}
	return sortedRecords(instances), nil
}

func sortedRecords(instances map[string]*Record) []*Record {
	records := make([]*Record, 0, len(instances))
	for _, rec := range instances {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records
}

// NextPortHint returns where the next allocation search should start.
func (r *Registry) NextPortHint() (int, error) {
	doc, err := r.Load()
	if err != nil {
		return 0, err
	}
	return doc.NextPort, nil
}

// Create registers name at basePort with mounts and provisions its
// directories. The directories are created here, as the invoking user, so
// the engine does not create them root-owned when binding.
func (r *Registry) Create(name string, basePort int, mounts []Mount) (*Record, error) {
	if err := config.ValidateInstanceName(name); err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	var created *Record
	err := r.update(func(doc *Document) error {
		if _, ok := doc.Instances[name]; ok {
			return errors.AlreadyExists(name)
		}

		if err := r.EnsureDirs(name, len(mounts) > 0); err != nil {
			return err
		}

		rec := &Record{
			Name:      name,
			Container: protocol.ContainerName(name),
			Port:      basePort,
			Created:   r.now().UTC(),
			Status:    StatusCreated,
			Mounts:    append([]Mount{}, mounts...),
		}
		doc.Instances[name] = rec

		if next := basePort + protocol.HintAdvance; next > doc.NextPort {
			doc.NextPort = next
		}
		created = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Debug("registered instance", "name", name, "port", basePort, "mounts", len(mounts))
	return created, nil
}

// EnsureDirs creates the instance directory tree, plus the shared folder
// root when shared is set. Existing directories are left alone.
func (r *Registry) EnsureDirs(name string, shared bool) error {
	dir, err := r.paths.InstanceDir(name)
	if err != nil {
		return err
	}

	dirs := []string{
		protocol.HostAgentStateDir,
		protocol.HostWorkspaceDir,
		protocol.HostAgentWorkDir,
	}
	if shared {
		dirs = append(dirs, protocol.HostSharedDir)
	}

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return nil
}

// Remove deletes the record for name. The wildcard protocol.AllInstances
// resets the whole document, including the port hint.
func (r *Registry) Remove(name string) error {
	return r.update(func(doc *Document) error {
		if name == protocol.AllInstances {
			doc.Instances = make(map[string]*Record)
			doc.NextPort = r.defaultHint
			return nil
		}
		if _, ok := doc.Instances[name]; !ok {
			return errors.NotFound(name)
		}
		delete(doc.Instances, name)
		return nil
	})
}

// SetStatus stores the advisory status hint for name.
func (r *Registry) SetStatus(name, status string) error {
	return r.update(func(doc *Document) error {
		rec, ok := doc.Instances[name]
		if !ok {
			return errors.NotFound(name)
		}
		rec.Status = status
		return nil
	})
}

// InstanceDir returns the private directory of name.
func (r *Registry) InstanceDir(name string) (string, error) {
	return r.paths.InstanceDir(name)
}
