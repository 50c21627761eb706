// Package televisor holds the display state, the values derived from it, and
// the Bubble Tea program that renders them.
//
// State only changes through State.Apply, which folds lifecycle events into a
// new value. Derive turns a State into the Display the view and the HTTP
// snapshot render; it never mutates anything.
//
// Layout:
//
//	╭───────╮                         ╭────────────╮
//	│ 02:05 │                         │ 🍊 Naranja │
//	╰───────╯                         ╰────────────╯
//	╭─────────────────────────╮ ╭──────────────────────────────────╮
//	│ ENF: EF1-7              │ │ Rendimiento: 82                  │
//	│ Nombre: El Tesoro       │ │ ████████████████░░░░ 82%         │
//	│ Kilos Procesados: 64    │ │ Kilos procesados Hora: 64        │
//	│ Kilos Exportación: 31   │ │ ████████████░░░░░░░░ 64 kg       │
//	╰─────────────────────────╯ │ Kilos Exportación Hora: 31       │
//	                            │ ██████░░░░░░░░░░░░░░ 31 kg       │
//	                            ╰──────────────────────────────────╯
package televisor
