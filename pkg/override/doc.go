// Package override holds the user's visual customizations and applies them
// on top of a computed layout.
//
// # Settings
//
// [ReportSettings] is the single persisted settings document: canvas and
// font sizes, header text, placed images, and a [NodeSettings] entry per
// customized node, keyed by node name. Entries are created lazily on the
// first customization and are never purged, so settings survive a node
// being renamed away and back.
//
// # Mutation
//
// Settings are values. Every change goes through [Apply], which takes a
// [Command] from a closed set ([SetColor], [MoveNode], [ReorderSibling],
// [ResizeImage], ...) and returns an updated copy. The interaction layer,
// the CLI and the editor all mutate settings this way.
//
// # Geometry
//
// [ClampOffset] keeps a dragged node's scaled box inside the canvas
// margins. [MoveNodeByDirection] swaps a node with its neighbor in its
// sibling group and renumbers the group into the parent's ChildrenOrder.
// [Ranks] turns ChildrenOrder entries into the rank function the layout
// engine sorts sibling groups with.
//
// # Colors
//
// [LinkColor] resolves a link's color from the node colors at both ends,
// honoring LinkColorPriority, and falls back to the flow-type palette.
package override
