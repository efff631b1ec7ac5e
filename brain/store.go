package brain

import (
	"sync"
)

// SceneStore owns the canonical scene document for a session. All writes
// go through Apply; every read leaves the store as an independent copy.
type SceneStore struct {
	mutex sync.Mutex
	scene SceneDocument
}

func NewSceneStore() *SceneStore {
	return &SceneStore{
		scene: DefaultScene(),
	}
}

// Apply deep-copies the patch, merges it into the canonical document,
// clamps the result, and atomically replaces the canonical document.
// The lock spans copy, merge, clamp and publish so a concurrent reader
// can never observe a half-merged document. Returns a copy of the new
// canonical document.
func (self *SceneStore) Apply(patch *ScenePatch) SceneDocument {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	patch = patch.Copy()
	self.scene = Clamp(Merge(self.scene, patch))
	return self.scene.Copy()
}

// Snapshot returns a copy of the current canonical document.
func (self *SceneStore) Snapshot() SceneDocument {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.scene.Copy()
}
