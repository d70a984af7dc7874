// Package achievement contains the achievement-unlocking engine.
//
// The package defines:
//
//   - Definitions: Achievement (atomic, point threshold) and Group (composite,
//     requires a fixed set of other achievements by name)
//   - UserState: per-user points and the set of unlocked achievement names
//   - Registry: the catalog of definitions and the evaluation algorithm
//   - Hub and Observer: synchronous unlock notifications
//
// # Evaluation
//
// Registry.Evaluate resolves a user's unlocks in a single call. Atomic
// achievements are checked first, then groups are checked repeatedly until no
// further group unlocks, so nested groups resolve in the same call:
//
//	registry.Register(mustAchievement("math_novice", 10))
//	registry.Register(mustAchievement("logic_novice", 10))
//	registry.Register(mustGroup("champion", "math_novice", "logic_novice"))
//
//	state.AddPoints(10)
//	registry.Evaluate(state) // math_novice, logic_novice, champion
//	registry.Evaluate(state) // nothing
//
// Names are the only identity: a group is satisfied by any unlocked
// achievement whose name matches a child. Groups referencing unknown names never
// unlock and are reported to the logger once per evaluation. Dependency cycles
// are not detected; groups in a cycle simply never unlock.
//
// Unlocked names only grow. The only code path that adds to them is Evaluate.
package achievement
