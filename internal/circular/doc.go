// Package circular holds the communications-board rules: who may see an
// item, who must acknowledge it, how the action-required set rotates, when
// the scroll gate opens, how the archive is queried and how an edit is
// recorded. Everything here is pure; storage, timers and HTTP live in the
// service and handler layers.
package circular
