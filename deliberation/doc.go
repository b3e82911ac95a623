// Package deliberation runs the fixed four-call reasoning pipeline behind
// every outward action.
//
// A cycle always walks the same stages in order:
//
//	Context -> Thought -> Draft -> Reflection -> Final
//
// Context assembles the prompt preamble without calling the backend. Each of
// the remaining stages makes exactly one backend call and sees the output of
// every earlier stage. The cycle result is the trimmed Final text.
package deliberation
