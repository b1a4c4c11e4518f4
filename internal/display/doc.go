// Package display provides the element registry that metric values are
// rendered into.
//
// A [Display] resolves element ids to [Element] values, mirroring how a web
// page resolves elements by id. Rendering is best-effort: a metric key with no
// matching element is skipped without error. [Memory] is the in-process
// implementation used by rigpanel; browser pages and the terminal UI observe
// it through [Memory.Subscribe].
//
// Users of the rigpanel library should not need to interact with this
// package directly beyond the value returned by rigpanel.Panel.Display.
package display
