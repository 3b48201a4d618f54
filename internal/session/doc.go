// Package session owns the durable collection of chat sessions and their
// message histories. All mutations pass through [Store].
//
// Key operations:
//
//   - Session lifecycle: [Store.Create], [Store.Delete], [Store.SetActive], [Store.Sessions]
//   - Message flow: [Store.AppendUserMessage], [Store.BeginAssistantMessage], [AssistantHandle.AppendDelta]
//
// # Persistence
//
// Every mutating call re-serializes the whole collection through a
// [Snapshotter]. A failed write is logged and in-memory state remains the
// source of truth for the running process. On startup the store loads the
// snapshot, tolerating absence and malformed content (both yield an empty
// collection plus one fresh session).
//
// # Concurrency
//
// Store is safe for concurrent use. A single mutex serializes mutations, so
// no two mutations interleave; readers may observe the intermediate content
// of an in-flight assistant message, which is intentional (progressive
// rendering).
package session
