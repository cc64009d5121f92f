/*
Package gui holds the late-bound reference to the GUI window and the encoding of
commands into front-end script.

The window is owned by the GUI bootstrap (for example the process host adapter),
which calls Handle.Bind once the window is up. Everything else only reads the handle.
*/
package gui
