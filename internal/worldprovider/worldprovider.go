// Package worldprovider declares the collaborator interface Play handlers
// consult for world/chunk/dimension data (spec.md §6). World storage, ECS,
// and terrain generation are explicitly out of scope for this module; a
// Provider is an external plugin point. When none is wired, the Play
// handlers fall back to a minimal synthetic Login (Play) packet, which is
// enough to keep a vanilla client connected past Configuration.
package worldprovider

// LoginPlayInfo carries the fields spec.md §6 lists for the initial
// Play-state join packet.
type LoginPlayInfo struct {
	EntityID         int32
	IsHardcore       bool
	DimensionNames   []string
	MaxPlayers       int32
	ViewDistance     int32
	SimulationDist   int32
	ReducedDebugInfo bool
	RespawnScreen    bool
	DoLimitedCrafting bool
	DimensionType    string
	DimensionName    string
	HashedSeed       int64
	GameMode         uint8
	PreviousGameMode int8
	IsDebug          bool
	IsFlat           bool
	PortalCooldown   int32
	SeaLevel         int32
	EnforceSecureChat bool
}

// Provider is the external collaborator Play entry consults for initial
// world state. Nil is a legal value everywhere a Provider is accepted —
// callers fall back to DefaultLoginPlayInfo.
type Provider interface {
	LoginPlayInfo() LoginPlayInfo
}

// DefaultLoginPlayInfo is the minimal valid Join-Game content used when no
// Provider is wired (spec.md §6: "the core's Play entry is satisfied by a
// minimal synthetic Login (Play) packet if no provider is wired").
func DefaultLoginPlayInfo() LoginPlayInfo {
	return LoginPlayInfo{
		EntityID:          1,
		IsHardcore:        false,
		DimensionNames:    []string{"minecraft:overworld"},
		MaxPlayers:        20,
		ViewDistance:      8,
		SimulationDist:    8,
		ReducedDebugInfo:  false,
		RespawnScreen:     true,
		DoLimitedCrafting: false,
		DimensionType:     "minecraft:overworld",
		DimensionName:     "minecraft:overworld",
		HashedSeed:        0,
		GameMode:          0,
		PreviousGameMode:  -1,
		IsDebug:           false,
		IsFlat:            false,
		PortalCooldown:    0,
		SeaLevel:          63,
		EnforceSecureChat: false,
	}
}
