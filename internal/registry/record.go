package registry

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
)

// MountMode is the access mode of a user mount.
type MountMode string

const (
	MountReadWrite MountMode = "rw"
	MountReadOnly  MountMode = "ro"
)

// Mount is a host folder shared into an instance.
type Mount struct {
	Host      string    `json:"host"`
	Container string    `json:"container"`
	Mode      MountMode `json:"mode"`
}

// String renders the mount as a docker -v value.
func (m Mount) String() string {
	s := m.Host + ":" + m.Container
	if m.Mode == MountReadOnly {
		s += ":ro"
	}
	return s
}

// ParseMount parses host[:container][:ro|rw]. A bare host path lands under
// the shared mount root using its base name.
func ParseMount(spec string) (Mount, error) {
	if spec == "" {
		return Mount{}, fmt.Errorf("empty mount")
	}

	parts := strings.Split(spec, ":")
	m := Mount{Mode: MountReadWrite}

	switch len(parts) {
	case 1:
		m.Host = parts[0]
	case 2:
		m.Host = parts[0]
		if parts[1] == string(MountReadOnly) || parts[1] == string(MountReadWrite) {
			m.Mode = MountMode(parts[1])
		} else {
			m.Container = parts[1]
		}
	case 3:
		m.Host, m.Container = parts[0], parts[1]
		switch MountMode(parts[2]) {
		case MountReadOnly, MountReadWrite:
			m.Mode = MountMode(parts[2])
		default:
			return Mount{}, fmt.Errorf("invalid mount mode %q in %q (want ro or rw)", parts[2], spec)
		}
	default:
		return Mount{}, fmt.Errorf("invalid mount %q", spec)
	}

	if m.Host == "" {
		return Mount{}, fmt.Errorf("mount %q has no host path", spec)
	}
	abs, err := filepath.Abs(m.Host)
	if err != nil {
		return Mount{}, fmt.Errorf("resolving %s: %w", m.Host, err)
	}
	m.Host = abs

	if m.Container == "" {
		m.Container = SharedMountPath(m.Host)
	}
	if !filepath.IsAbs(m.Container) {
		return Mount{}, fmt.Errorf("container path %q must be absolute", m.Container)
	}

	return m, nil
}

// SharedMountPath is where a host folder appears inside the container.
func SharedMountPath(host string) string {
	return protocol.SharedMountRoot + "/" + filepath.Base(host)
}

// Record is one registered instance. Fields not known to this version are
// kept in extra and written back unchanged.
type Record struct {
	Name      string    `json:"-"`
	Container string    `json:"container"`
	Port      int       `json:"port"`
	Created   time.Time `json:"created"`
	Status    string    `json:"status"`
	Mounts    []Mount   `json:"mounts"`

	extra map[string]json.RawMessage
}

// Advisory status hints. The live engine query is authoritative.
const (
	StatusCreated = "created"
	StatusRunning = "running"
	StatusStopped = "stopped"
)

var recordKeys = []string{"container", "port", "created", "status", "mounts"}

// Block returns the four host ports reserved by this record.
func (r *Record) Block() [4]int {
	return protocol.Block(r.Port)
}

type recordAlias Record

func (r *Record) UnmarshalJSON(data []byte) error {
	var alias recordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range recordKeys {
		delete(raw, k)
	}

	*r = Record(alias)
	if len(raw) > 0 {
		r.extra = raw
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	mounts := r.Mounts
	if mounts == nil {
		mounts = []Mount{}
	}
	alias := recordAlias(r)
	alias.Mounts = mounts

	known, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	if len(r.extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(r.extra)+len(recordKeys))
	for k, v := range r.extra {
		merged[k] = v
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Document is the whole registry file.
type Document struct {
	Instances map[string]*Record `json:"instances"`
	NextPort  int                `json:"nextPort"`

	extra map[string]json.RawMessage
}

func newDocument(hint int) *Document {
	return &Document{
		Instances: make(map[string]*Record),
		NextPort:  hint,
	}
}

type documentAlias Document

func (d *Document) UnmarshalJSON(data []byte) error {
	var alias documentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "instances")
	delete(raw, "nextPort")

	*d = Document(alias)
	if d.Instances == nil {
		d.Instances = make(map[string]*Record)
	}
	for name, rec := range d.Instances {
		if rec == nil {
			delete(d.Instances, name)
			continue
		}
		rec.Name = name
	}
	if len(raw) > 0 {
		d.extra = raw
	}
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	merged := make(map[string]any, len(d.extra)+2)
	for k, v := range d.extra {
		merged[k] = v
	}
	instances := d.Instances
	if instances == nil {
		instances = map[string]*Record{}
	}
	merged["instances"] = instances
	merged["nextPort"] = d.NextPort
	return json.Marshal(merged)
}
