package device

type catalogueEntry struct {
	gen       Generation
	overrides map[Capability]Support
}

var catalogue = map[string]catalogueEntry{
	// R7XX.
	"rv710": {gen: GenerationHD4XXX},
	"rv730": {gen: GenerationHD4XXX},
	"rv770": {gen: GenerationHD4XXX, overrides: map[Capability]Support{CapabilityDoubleOps: SupportedInHardware}},
	// Evergreen.
	"cedar":   {gen: GenerationHD5XXX},
	"redwood": {gen: GenerationHD5XXX},
	"juniper": {gen: GenerationHD5XXX},
	"cypress": {gen: GenerationHD5XXX, overrides: map[Capability]Support{CapabilityDoubleOps: SupportedInHardware}},
	// Northern Islands. Barts, Turks and Caicos keep the Evergreen ALU.
	"barts":  {gen: GenerationHD6XXX},
	"turks":  {gen: GenerationHD6XXX},
	"caicos": {gen: GenerationHD6XXX},
	"cayman": {gen: GenerationHD6XXX, overrides: map[Capability]Support{
		CapabilityDoubleOps: SupportedInHardware,
		CapabilityLongOps:   SupportedInHardware,
		CapabilityFMA:       SupportedInHardware,
	}},
}

func generationSupport(gen Generation) (ret [numCapabilities]Support) {
	switch gen {
	case GenerationHD4XXX:
		ret[CapabilityHalfOps] = SupportedInSoftware
		ret[CapabilityDoubleOps] = SupportedInSoftware
		ret[CapabilityByteOps] = SupportedInSoftware
		ret[CapabilityShortOps] = SupportedInSoftware
		ret[CapabilityLongOps] = SupportedInSoftware
		ret[CapabilityImages] = SupportedInHardware
		ret[CapabilityConstantMem] = SupportedInHardware
		// The R7XX LDS is not addressable the way OpenCL local memory needs, so it is emulated in the UAV.
		ret[CapabilityLocalMem] = SupportedInSoftware
		ret[CapabilityPrivateMem] = SupportedInHardware
		ret[CapabilityFMA] = SupportedInSoftware
		ret[CapabilityBarrierDetect] = SupportedInSoftware
		ret[CapabilityMacroDB] = SupportedInSoftware
		ret[CapabilityPrivateUAV] = SupportedInHardware
	case GenerationHD5XXX, GenerationHD6XXX:
		ret[CapabilityHalfOps] = SupportedInSoftware
		ret[CapabilityDoubleOps] = SupportedInSoftware
		ret[CapabilityByteOps] = SupportedInSoftware
		ret[CapabilityShortOps] = SupportedInSoftware
		ret[CapabilityLongOps] = SupportedInSoftware
		ret[CapabilityImages] = SupportedInHardware
		ret[CapabilityByteStores] = SupportedInHardware
		ret[CapabilityConstantMem] = SupportedInHardware
		ret[CapabilityLocalMem] = SupportedInHardware
		ret[CapabilityPrivateMem] = SupportedInHardware
		ret[CapabilityRegionMem] = SupportedInHardware
		ret[CapabilityFMA] = SupportedInSoftware
		ret[CapabilitySigned24BitOps] = SupportedInHardware
		ret[CapabilityBarrierDetect] = SupportedInHardware
		ret[CapabilityMacroDB] = SupportedInHardware
		ret[CapabilityArenaUAV] = SupportedInHardware
		ret[CapabilityPrivateUAV] = SupportedInHardware
	default:
		panic("BUG: invalid generation " + gen.String())
	}
	return
}

func generationResources(gen Generation) (ret [numResources]uint32) {
	ret[ResourceLDS] = 1
	ret[ResourceGDS] = 1
	ret[ResourceScratch] = 8
	if gen == GenerationHD4XXX {
		ret[ResourceRawUAV] = 7
	} else {
		ret[ResourceRawUAV] = 11
	}
	return
}
