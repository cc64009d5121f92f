/*
Package domain contains the entities shared by the studiobridge components.

It is kept free of I/O: the transport, storage and GUI adapters translate to and from
these types.

# Key Entities

  - Command: a named instruction plus payload relayed into the GUI execution context.
  - DispatchResult: the relayed outcome, distinguishing a value from an absorbed failure.
  - Submission: the current answer set of one student, at most one per identity.
  - StatusReport: the observable answer to a status query.
*/
package domain
