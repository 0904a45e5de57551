//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"boarddesigner/internal/board"
	"boarddesigner/internal/boardview"
	"boarddesigner/internal/crash"
	applog "boarddesigner/internal/log"
	"boarddesigner/internal/undo"
)

// Run opens the board in a desktop window and blocks until it is closed.
func Run(ctx context.Context, opt Options) error {
	l := applog.WithComponent("ui").With(slog.Int64("board", opt.BoardID))
	if opt.Catalog == nil {
		return errors.New("catalog is required")
	}
	h, err := opt.Catalog.OpenBoard(ctx, opt.BoardID)
	if err != nil {
		return err
	}
	defer crash.Recover(h)
	l.Info("starting UI")

	fyneApp := app.NewWithID("boarddesigner")
	w := fyneApp.NewWindow(fmt.Sprintf("Board Designer - %s", h.Board.Name()))
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1100), 640)
	winH := max(prefs.IntWithFallback("window.height", 800), 480)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	st := board.NewState()
	um := undo.NewManager(undo.Config{MaxBytes: 8 << 20, MaxPerBoard: 100})
	view := boardview.New(h.Board, st, boardview.Options{
		Scale:        opt.Canvas.Scale,
		DrawInterval: opt.Canvas.DrawInterval(),
		HandleSize:   opt.Canvas.HandleSizeDip,
		TouchSlop:    opt.Canvas.TouchSlopDip,
		Logger:       l,
		Undo:         um,
		BoardID:      opt.BoardID,
	})
	bw := NewBoardWidget(view)
	status := widget.NewLabel("Ready")

	save := func() {
		if err := opt.Catalog.Save(ctx, opt.BoardID, h); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved")
	}
	addBox := func() {
		styles := h.Board.Styles().List()
		if len(styles) == 0 {
			return
		}
		x, y := view.BoardPoint(0, 0)
		f := h.Board.Grid().Factor()
		box, err := h.Board.AddBox(styles[0].UID, x+f, y+f)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		st.SetSelected(box)
	}
	styleNames := func() []string {
		var names []string
		for _, s := range h.Board.Styles().List() {
			names = append(names, s.Name)
		}
		return names
	}
	stylePicker := widget.NewSelect(styleNames(), func(name string) {
		for _, s := range h.Board.Styles().List() {
			if s.Name != name {
				continue
			}
			if err := view.ApplyStyleToSelection(s.UID); err != nil {
				status.SetText(err.Error())
			}
			return
		}
	})
	stylePicker.PlaceHolder = "Style"
	deleteSelected := func() {
		if sel := st.Selected(); sel != nil {
			st.SetSelected(nil)
			h.Board.RemoveObject(sel.ID())
		}
	}
	togglePanning := func() {
		st.SetPanningActive(!st.PanningActive())
		if st.PanningActive() {
			status.SetText("Panning: drag to scroll")
		} else {
			status.SetText("Editing")
		}
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), addBox),
		widget.NewToolbarAction(theme.DeleteIcon(), deleteSelected),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { view.Undo() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { view.Redo() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewFullScreenIcon(), togglePanning),
		widget.NewToolbarAction(theme.GridIcon(), func() { st.SetShowGrid(!st.ShowGrid()) }),
		widget.NewToolbarAction(theme.VisibilityIcon(), func() { st.SetShowUI(!st.ShowUI()) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), save),
	)

	sel := st.OnSelectionChange(func(o board.Object) {
		text := "Nothing selected"
		if o != nil {
			g := o.Geometry()
			text = fmt.Sprintf("Selected %d,%d %dx%d", g.X, g.Y, g.W, g.H)
		}
		fyne.Do(func() { status.SetText(text) })
	})

	c := w.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { save() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { view.Undo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { view.Redo() })

	bottom := container.NewBorder(nil, nil, nil, stylePicker, status)
	w.SetContent(container.NewBorder(toolbar, bottom, nil, nil, bw))
	w.SetOnClosed(func() {
		size := w.Canvas().Size()
		prefs.SetInt("window.width", int(size.Width))
		prefs.SetInt("window.height", int(size.Height))
		st.RemoveSelectionListener(sel)
		bw.Close()
		view.Close()
		l.Info("UI closed", slog.Uint64("dropped_frames", view.DroppedFrames()))
	})
	w.ShowAndRun()
	return nil
}
