// Package task schedules the deferred reading tasks that auto-complete study
// topics. Each eligible note gets one timer derived from its reading time;
// when the timer fires the note's topic is marked completed through the
// topic-update sink and the local note mirror is updated.
//
// All scheduler state is owned by a single goroutine. Public methods, timer
// callbacks and the continuations of in-flight updates are delivered to it as
// closures, so no two of them ever run concurrently.
package task
