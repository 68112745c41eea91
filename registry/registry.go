// Package registry hosts versioned services inside one process. Descriptors
// pair a hierarchical service id with the versions an implementation
// supports; the registry constructs each implementation lazily on first
// activation and hands the singleton to dependents that ask for a
// compatible version.
//
// A Registry is an explicit value passed to services at construction; there
// is no ambient process-wide singleton. It is not safe for concurrent use:
// registration and activation happen on one goroutine, mirroring how
// service wiring runs during host startup. Dependency edges between
// services must be acyclic, and there is no cycle guard: a constructor
// that (transitively) requests its own service will recurse forever, so
// hosts register and activate in dependency order.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/delaneyj/hostparty/rpc"
)

var (
	// ErrDuplicateID is returned when a second descriptor is registered
	// under an id that is already taken.
	ErrDuplicateID = errors.New("registry: service id already registered")
	// ErrDuplicateMajor is returned when one descriptor advertises two
	// versions sharing a major component.
	ErrDuplicateMajor = errors.New("registry: duplicate major version in descriptor")
	// ErrServiceNotFound is returned when a dependency lookup names an
	// unregistered service id.
	ErrServiceNotFound = errors.New("registry: service not found")
	// ErrNoCompatibleVersion is returned when no advertised version
	// satisfies the request.
	ErrNoCompatibleVersion = errors.New("registry: no compatible version")
)

// ServiceOptions is the small bundle of host-provided knobs every service
// constructor receives.
type ServiceOptions struct {
	// Data carries host-specific values services may consult. Keys are
	// agreed between host and service; absent keys mean defaults.
	Data map[string]any
}

// Factory constructs a service implementation. It receives the owning
// registry (for dependency lookups), a logger namespaced to the service id,
// and the host's options.
type Factory func(host *Registry, log *slog.Logger, opts ServiceOptions) (any, error)

// Descriptor declares a service: its hierarchical id, the versions this
// implementation supports, and the factory that builds it.
type Descriptor struct {
	ID       rpc.Address
	Versions []Version
	New      Factory
}

// BatchRequest names a service and the versions a dependent can accept, in
// preference order.
type BatchRequest struct {
	ID                 rpc.Address
	AcceptableVersions []VersionRequest
}

// ServiceStatus is a diagnostic snapshot of one registered service.
type ServiceStatus struct {
	ID          rpc.Address
	Versions    []Version
	Active      []Version
	Constructed bool
}

// Registry is the process-wide service host. Create one with New and keep
// it for the process lifetime; there is no teardown API.
type Registry struct {
	log      *slog.Logger
	handlers rpc.HandlerRegistry
	opts     ServiceOptions

	descriptors []*Descriptor
	instances   map[*Descriptor]any
	active      map[*Descriptor]map[int]Version
}

func New(log *slog.Logger, handlers rpc.HandlerRegistry, opts ServiceOptions) *Registry {
	return &Registry{
		log:       log,
		handlers:  handlers,
		opts:      opts,
		instances: map[*Descriptor]any{},
		active:    map[*Descriptor]map[int]Version{},
	}
}

// Register adds a descriptor. Registering the same descriptor value again
// is a no-op; a different descriptor with an already-taken id fails, as
// does a descriptor carrying two versions with the same major.
func (r *Registry) Register(d *Descriptor) error {
	for _, existing := range r.descriptors {
		if existing == d {
			return nil
		}
		if existing.ID.Equal(d.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
	}
	majors := map[int]bool{}
	for _, v := range d.Versions {
		if majors[v.Major] {
			return fmt.Errorf("%w: %s advertises major %d twice", ErrDuplicateMajor, d.ID, v.Major)
		}
		majors[v.Major] = true
	}
	r.descriptors = append(r.descriptors, d)
	r.log.Debug("service registered", "service", d.ID.String(), "versions", len(d.Versions))
	return nil
}

// ResolveVersion scans the descriptor's versions in declaration order and
// keeps the last one matching the request. Last-match, not max-match:
// callers pin this scan order, so a lower version declared later wins over
// a higher one declared earlier.
func (r *Registry) ResolveVersion(d *Descriptor, req VersionRequest) (Version, bool) {
	var resolved Version
	found := false
	for _, v := range d.Versions {
		if req.Matches(v) {
			resolved = v
			found = true
		}
	}
	return resolved, found
}

// Activate resolves a version of the descriptor and marks it active,
// constructing the service implementation if this is its first activation.
// Unseen descriptors are registered on the way. Activating an
// already-active version returns the existing instance.
//
// At most one instance exists per descriptor: re-activation at a different
// major reuses the same underlying implementation.
func (r *Registry) Activate(d *Descriptor, req VersionRequest) (any, Version, error) {
	if err := r.Register(d); err != nil {
		return nil, Version{}, err
	}
	v, ok := r.ResolveVersion(d, req)
	if !ok {
		return nil, Version{}, fmt.Errorf("%w: %s has nothing satisfying %s", ErrNoCompatibleVersion, d.ID, req)
	}

	if current, ok := r.active[d][v.Major]; ok {
		return r.instances[d], current, nil
	}

	instance, ok := r.instances[d]
	if !ok {
		log := r.log.With("service", d.ID.String())
		built, err := d.New(r, log, r.opts)
		if err != nil {
			return nil, Version{}, fmt.Errorf("registry: constructing %s: %w", d.ID, err)
		}
		if err := r.handlers.RegisterAll(built); err != nil {
			return nil, Version{}, fmt.Errorf("registry: registering handlers for %s: %w", d.ID, err)
		}
		r.instances[d] = built
		instance = built
	}

	if r.active[d] == nil {
		r.active[d] = map[int]Version{}
	}
	r.active[d][v.Major] = v
	r.log.Info("service activated", "service", d.ID.String(), "version", v.String())
	return instance, v, nil
}

// GetDependency activates the service registered under id at a compatible
// version and returns its instance. This is how one service obtains another
// at construction time.
func (r *Registry) GetDependency(id rpc.Address, req VersionRequest) (any, error) {
	for _, d := range r.descriptors {
		if d.ID.Equal(id) {
			instance, _, err := r.Activate(d, req)
			return instance, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
}

// RequestBatch activates, for each request, the first acceptable version
// that resolves. Every failing request contributes to the returned error;
// activations that succeeded before a failure are not rolled back.
func (r *Registry) RequestBatch(requests []BatchRequest) error {
	var errs []error
	for _, request := range requests {
		if err := r.activateFirst(request); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) activateFirst(request BatchRequest) error {
	var target *Descriptor
	for _, d := range r.descriptors {
		if d.ID.Equal(request.ID) {
			target = d
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, request.ID)
	}
	for _, req := range request.AcceptableVersions {
		if _, ok := r.ResolveVersion(target, req); !ok {
			continue
		}
		_, _, err := r.Activate(target, req)
		return err
	}
	return fmt.Errorf("%w: %s accepts none of %v", ErrNoCompatibleVersion, request.ID, request.AcceptableVersions)
}

// Services reports a snapshot of every registered service for diagnostics.
func (r *Registry) Services() []ServiceStatus {
	statuses := make([]ServiceStatus, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		status := ServiceStatus{
			ID:       d.ID,
			Versions: d.Versions,
		}
		for _, v := range d.Versions {
			if active, ok := r.active[d][v.Major]; ok && active == v {
				status.Active = append(status.Active, v)
			}
		}
		_, status.Constructed = r.instances[d]
		statuses = append(statuses, status)
	}
	return statuses
}
