// Package interact translates pointer gestures into settings updates.
//
// A [Controller] owns the current settings, a graph and a layout memo. Each
// draggable entity follows the same gesture:
//
//	Idle --PointerDown--> Dragging --PointerUp--> Idle (click) | Committed
//
// While dragging, [Controller.PointerMove] returns a scene rebuilt from the
// memoized layout plus a live, clamped offset; the layout itself is never
// recomputed mid-gesture. On release, a displacement under
// [ClickThreshold] counts as a click and toggles selection; anything larger
// is committed through the override reducer and reported to the commit
// hook, which typically persists the settings.
//
// Selection is exclusive: at most one node or one image is selected.
package interact
