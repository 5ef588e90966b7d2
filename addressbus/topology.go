package addressbus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Topology is the YAML-declared shape of an emulated target's address
// map: its memory devices and the redirects layered over them. It
// declares no register files. A tool builds and wires the actual
// Device implementations; Topology only carries the declarative layout.
type Topology struct {
	AddrBits uint                `yaml:"addr_bits"`
	HashBits uint                `yaml:"hash_bits"`
	Devices  []DeviceTopology    `yaml:"devices"`
	Redirects []RedirectTopology `yaml:"redirects"`
}

// DeviceTopology declares one memory-backed device and where it sits on
// the bus.
type DeviceTopology struct {
	// Name identifies the device for Bus.Lookup and redirect/unregister
	// targeting. Required.
	Name string `yaml:"name"`

	// Kind selects the backing implementation ("ram", "rom"); a tool maps
	// this to a concrete Device constructor. Required.
	Kind string `yaml:"kind"`

	// Address is the bus address the device is registered at. Required.
	Address int64 `yaml:"address"`

	// Size is the device's byte size. Required, must be > 0.
	Size int64 `yaml:"size"`

	// Writable marks a RAM-kind device writable; ROM-kind devices ignore
	// this and are always read-only.
	Writable bool `yaml:"writable"`
}

// RedirectTopology declares one bus redirect overlay.
type RedirectTopology struct {
	// SourceStart is the bus address the redirect intercepts. Required.
	SourceStart int64 `yaml:"source_start"`

	// Size is the byte span of the redirect. Required, must be > 0.
	Size int64 `yaml:"size"`

	// TargetStart is the bus address the redirect's span is remapped onto,
	// which must already resolve to a single registered device. Required.
	TargetStart int64 `yaml:"target_start"`
}

// LoadTopology reads the YAML file at path, unmarshals it into a
// Topology, and validates that every device and redirect declaration is
// well-formed. Actually instantiating Device implementations and
// registering them on a Bus is left to the caller (Topology has no way
// to know what backs a "ram" device's bytes; a tool decides that).
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("addressbus: cannot read topology %q: %w", path, err)
	}

	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("addressbus: cannot parse topology %q: %w", path, err)
	}

	applyTopologyDefaults(&topo)

	if err := validateTopology(&topo); err != nil {
		return nil, fmt.Errorf("addressbus: invalid topology %q: %w", path, err)
	}

	return &topo, nil
}

func applyTopologyDefaults(topo *Topology) {
	if topo.AddrBits == 0 {
		topo.AddrBits = 32
	}
	if topo.HashBits == 0 {
		topo.HashBits = 8
	}
}

func validateTopology(topo *Topology) error {
	seen := map[string]bool{}
	for _, d := range topo.Devices {
		if d.Name == "" {
			return fmt.Errorf("device with no name")
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate device name %q", d.Name)
		}
		seen[d.Name] = true
		if d.Size <= 0 {
			return fmt.Errorf("device %q: size must be > 0", d.Name)
		}
		if d.Kind != "ram" && d.Kind != "rom" {
			return fmt.Errorf("device %q: unknown kind %q", d.Name, d.Kind)
		}
	}
	for i, r := range topo.Redirects {
		if r.Size <= 0 {
			return fmt.Errorf("redirect %d: size must be > 0", i)
		}
	}
	return nil
}
