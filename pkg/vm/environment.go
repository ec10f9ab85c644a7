package vm

// Environment is the world outside the VM that the scheduler and core
// handlers consult. Gameplay modules usually hold a richer reference to the
// same collaborator.
type Environment interface {
	// PlayerWastedOrBusted reports whether the player died or was arrested.
	PlayerWastedOrBusted() bool
	// CleanupMission destroys every object created by mission threads.
	CleanupMission()
}

type nopEnvironment struct{}

func (nopEnvironment) PlayerWastedOrBusted() bool { return false }
func (nopEnvironment) CleanupMission()            {}
