// Package device models the capabilities of the AMD GPU generations the IL backend targets.
//
// A Device is constructed once per compilation target and is never mutated afterwards, so the same
// Device can be shared by compilations running on different goroutines.
package device

import (
	"fmt"
	"sort"
)

// Generation is a hardware era, the primary axis for capability gating.
type Generation byte

const (
	// GenerationInvalid is the zero value and never names a real device.
	GenerationInvalid Generation = iota
	// GenerationHD4XXX is the R7XX family.
	GenerationHD4XXX
	// GenerationHD5XXX is the Evergreen family.
	GenerationHD5XXX
	// GenerationHD6XXX is the Northern Islands family.
	GenerationHD6XXX
)

// String implements fmt.Stringer.
func (g Generation) String() string {
	switch g {
	case GenerationHD4XXX:
		return "HD4XXX"
	case GenerationHD5XXX:
		return "HD5XXX"
	case GenerationHD6XXX:
		return "HD6XXX"
	default:
		return "invalid"
	}
}

// Capability is a named hardware feature.
type Capability byte

const (
	CapabilityHalfOps Capability = iota
	CapabilityDoubleOps
	CapabilityByteOps
	CapabilityShortOps
	CapabilityLongOps
	CapabilityImages
	CapabilityByteStores
	CapabilityConstantMem
	CapabilityLocalMem
	CapabilityPrivateMem
	CapabilityRegionMem
	CapabilityFMA
	CapabilitySigned24BitOps
	CapabilityBarrierDetect
	CapabilityMacroDB
	CapabilityArenaUAV
	CapabilityPrivateUAV

	numCapabilities
)

var capabilityNames = [numCapabilities]string{
	CapabilityHalfOps:        "half_ops",
	CapabilityDoubleOps:      "double_ops",
	CapabilityByteOps:        "byte_ops",
	CapabilityShortOps:       "short_ops",
	CapabilityLongOps:        "long_ops",
	CapabilityImages:         "images",
	CapabilityByteStores:     "byte_stores",
	CapabilityConstantMem:    "constant_mem",
	CapabilityLocalMem:       "local_mem",
	CapabilityPrivateMem:     "private_mem",
	CapabilityRegionMem:      "region_mem",
	CapabilityFMA:            "fma",
	CapabilitySigned24BitOps: "signed_24bit_ops",
	CapabilityBarrierDetect:  "barrier_detect",
	CapabilityMacroDB:        "macro_db",
	CapabilityArenaUAV:       "arena_uav",
	CapabilityPrivateUAV:     "private_uav",
}

// String implements fmt.Stringer.
func (c Capability) String() string {
	if c < numCapabilities {
		return capabilityNames[c]
	}
	return fmt.Sprintf("capability(%d)", c)
}

// AllCapabilities returns every Capability in declaration order.
func AllCapabilities() []Capability {
	ret := make([]Capability, numCapabilities)
	for i := range ret {
		ret[i] = Capability(i)
	}
	return ret
}

// Support is the level at which a Capability is available.
type Support byte

const (
	NotSupported Support = iota
	SupportedInSoftware
	SupportedInHardware
)

// String implements fmt.Stringer.
func (s Support) String() string {
	switch s {
	case NotSupported:
		return "unsupported"
	case SupportedInSoftware:
		return "software"
	case SupportedInHardware:
		return "hardware"
	default:
		return fmt.Sprintf("support(%d)", s)
	}
}

// Resource is a memory resource that instructions address by numeric ID.
type Resource byte

const (
	// ResourceRawUAV is the byte-addressed UAV backing global memory.
	ResourceRawUAV Resource = iota
	// ResourceLDS is the local data store backing local memory.
	ResourceLDS
	// ResourceGDS is the global data store backing region memory.
	ResourceGDS
	// ResourceScratch is the UAV backing private memory.
	ResourceScratch

	numResources
)

// String implements fmt.Stringer.
func (r Resource) String() string {
	switch r {
	case ResourceRawUAV:
		return "raw_uav"
	case ResourceLDS:
		return "lds"
	case ResourceGDS:
		return "gds"
	case ResourceScratch:
		return "scratch"
	default:
		return fmt.Sprintf("resource(%d)", r)
	}
}

// CAL versions gating formula choices in the backend.
const (
	// CALVersionSC135 is the first CAL release whose shader compiler handles the
	// double-precision bias constants used by the int to double conversions.
	CALVersionSC135 uint32 = 950
	// CALVersionSC139 is the default toolchain version.
	CALVersionSC139 uint32 = 1157
	// DefaultCALVersion is used by Lookup when the caller passes zero.
	DefaultCALVersion = CALVersionSC139
)

// Capabilities is the read-only view of a Device consumed by the backend.
type Capabilities interface {
	// Name returns the device name, e.g. "cypress".
	Name() string
	// Generation returns the hardware generation.
	Generation() Generation
	// CALVersion returns the toolchain version the output is compiled for.
	CALVersion() uint32
	// IsSupported returns true if the capability is available at all, in hardware or software.
	IsSupported(Capability) bool
	// UsesHardware returns true if the capability is implemented in hardware.
	UsesHardware(Capability) bool
	// UsesSoftware returns true if the capability is only emulated.
	UsesSoftware(Capability) bool
	// DefaultResourceID returns the ID used when upstream did not assign one.
	DefaultResourceID(Resource) uint32
}

// Device implements Capabilities for one catalogue entry.
type Device struct {
	name      string
	gen       Generation
	cal       uint32
	support   [numCapabilities]Support
	resources [numResources]uint32
}

var _ Capabilities = (*Device)(nil)

// Name implements Capabilities.Name.
func (d *Device) Name() string { return d.name }

// Generation implements Capabilities.Generation.
func (d *Device) Generation() Generation { return d.gen }

// CALVersion implements Capabilities.CALVersion.
func (d *Device) CALVersion() uint32 { return d.cal }

// Support returns the support level of c.
func (d *Device) Support(c Capability) Support {
	if c >= numCapabilities {
		return NotSupported
	}
	return d.support[c]
}

// IsSupported implements Capabilities.IsSupported.
func (d *Device) IsSupported(c Capability) bool { return d.Support(c) != NotSupported }

// UsesHardware implements Capabilities.UsesHardware.
func (d *Device) UsesHardware(c Capability) bool { return d.Support(c) == SupportedInHardware }

// UsesSoftware implements Capabilities.UsesSoftware.
func (d *Device) UsesSoftware(c Capability) bool { return d.Support(c) == SupportedInSoftware }

// DefaultResourceID implements Capabilities.DefaultResourceID.
func (d *Device) DefaultResourceID(r Resource) uint32 {
	if r >= numResources {
		panic(fmt.Sprintf("BUG: unknown resource %d", r))
	}
	return d.resources[r]
}

// String implements fmt.Stringer.
func (d *Device) String() string {
	return fmt.Sprintf("%s(%s, cal=%d)", d.name, d.gen, d.cal)
}

// Names returns the catalogue device names in sorted order.
func Names() []string {
	ret := make([]string, 0, len(catalogue))
	for name := range catalogue {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Lookup constructs the named device. A zero calVersion selects DefaultCALVersion.
func Lookup(name string, calVersion uint32) (*Device, error) {
	entry, ok := catalogue[name]
	if !ok {
		return nil, fmt.Errorf("unknown device %q", name)
	}
	if calVersion == 0 {
		calVersion = DefaultCALVersion
	}
	d := &Device{name: name, gen: entry.gen, cal: calVersion}
	d.support = generationSupport(entry.gen)
	for c, s := range entry.overrides {
		d.support[c] = s
	}
	d.resources = generationResources(entry.gen)
	return d, nil
}

// MustLookup is like Lookup but panics on unknown names. Intended for tests and static tables.
func MustLookup(name string, calVersion uint32) *Device {
	d, err := Lookup(name, calVersion)
	if err != nil {
		panic(err)
	}
	return d
}
