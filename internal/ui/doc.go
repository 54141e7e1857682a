// Package ui provides shared terminal styling primitives for pinctl's
// output: the semantic color palette, status symbols, and the sparkline
// renderer used by the dashboard's metric graphs.
//
// Colors are defined as ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Successful operations, healthy metrics
//	ColorError     (red)    - Failures and critical metrics
//	ColorWarning   (yellow) - Warnings and elevated metrics
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text
//	ColorSecondary (blue)   - In-progress indicators
//
// Sparklines map a series of float64 samples onto 8 vertical block levels
// and color the result by the latest value's threshold:
//
//	ui.RenderSparkline(samples, 40)  // ▁▂▃▅▆█▇▅
//
// Colors change based on percentage: green (0-60%), yellow (60-80%), red (80-100%).
package ui
