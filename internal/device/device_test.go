package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		_, err := Lookup("tahiti", 0)
		require.EqualError(t, err, `unknown device "tahiti"`)
		require.Panics(t, func() { MustLookup("tahiti", 0) })
	})
	t.Run("default CAL version", func(t *testing.T) {
		require.Equal(t, DefaultCALVersion, MustLookup("cedar", 0).CALVersion())
		require.Equal(t, CALVersionSC135, MustLookup("cedar", CALVersionSC135).CALVersion())
	})
	t.Run("String", func(t *testing.T) {
		require.Equal(t, "cayman(HD6XXX, cal=1157)", MustLookup("cayman", 0).String())
	})
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{
		"barts", "caicos", "cayman", "cedar", "cypress", "juniper",
		"redwood", "rv710", "rv730", "rv770", "turks",
	}, Names())
}

func TestDevice_Support(t *testing.T) {
	for _, tc := range []struct {
		name       string
		capability Capability
		expected   Support
	}{
		{name: "rv710", capability: CapabilityLocalMem, expected: SupportedInSoftware},
		{name: "rv710", capability: CapabilityRegionMem, expected: NotSupported},
		{name: "rv710", capability: CapabilityByteStores, expected: NotSupported},
		{name: "rv710", capability: CapabilityDoubleOps, expected: SupportedInSoftware},
		{name: "rv770", capability: CapabilityDoubleOps, expected: SupportedInHardware},
		{name: "cedar", capability: CapabilityLocalMem, expected: SupportedInHardware},
		{name: "cedar", capability: CapabilityRegionMem, expected: SupportedInHardware},
		{name: "cedar", capability: CapabilityDoubleOps, expected: SupportedInSoftware},
		{name: "cypress", capability: CapabilityDoubleOps, expected: SupportedInHardware},
		{name: "cypress", capability: CapabilityLongOps, expected: SupportedInSoftware},
		{name: "barts", capability: CapabilityLongOps, expected: SupportedInSoftware},
		{name: "cayman", capability: CapabilityLongOps, expected: SupportedInHardware},
		{name: "cayman", capability: CapabilityFMA, expected: SupportedInHardware},
		{name: "cayman", capability: CapabilityByteStores, expected: SupportedInHardware},
		{name: "cayman", capability: Capability(200), expected: NotSupported},
	} {
		tc := tc
		t.Run(tc.name+"/"+tc.capability.String(), func(t *testing.T) {
			d := MustLookup(tc.name, 0)
			require.Equal(t, tc.expected, d.Support(tc.capability))
			require.Equal(t, tc.expected != NotSupported, d.IsSupported(tc.capability))
			require.Equal(t, tc.expected == SupportedInHardware, d.UsesHardware(tc.capability))
			require.Equal(t, tc.expected == SupportedInSoftware, d.UsesSoftware(tc.capability))
		})
	}
}

func TestDevice_DefaultResourceID(t *testing.T) {
	for _, tc := range []struct {
		name     string
		expected [numResources]uint32
	}{
		{name: "rv730", expected: [numResources]uint32{ResourceRawUAV: 7, ResourceLDS: 1, ResourceGDS: 1, ResourceScratch: 8}},
		{name: "juniper", expected: [numResources]uint32{ResourceRawUAV: 11, ResourceLDS: 1, ResourceGDS: 1, ResourceScratch: 8}},
		{name: "cayman", expected: [numResources]uint32{ResourceRawUAV: 11, ResourceLDS: 1, ResourceGDS: 1, ResourceScratch: 8}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			d := MustLookup(tc.name, 0)
			for r := Resource(0); r < numResources; r++ {
				require.Equal(t, tc.expected[r], d.DefaultResourceID(r), r.String())
			}
			require.Panics(t, func() { d.DefaultResourceID(numResources) })
		})
	}
}

func TestStrings(t *testing.T) {
	require.Equal(t, "HD4XXX", GenerationHD4XXX.String())
	require.Equal(t, "invalid", GenerationInvalid.String())
	require.Equal(t, "signed_24bit_ops", CapabilitySigned24BitOps.String())
	require.Equal(t, "capability(200)", Capability(200).String())
	require.Equal(t, "software", SupportedInSoftware.String())
	require.Equal(t, "raw_uav", ResourceRawUAV.String())
	require.Equal(t, "resource(9)", Resource(9).String())
	require.Equal(t, int(numCapabilities), len(AllCapabilities()))
	require.Equal(t, CapabilityPrivateUAV, AllCapabilities()[numCapabilities-1])
}
