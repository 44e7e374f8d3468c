/*
Package session implements vehicle session management and persistence orchestration.

It serializes concurrent access to a vehicle's stored snapshot across goroutines
and, with a distributed locker, across replicas. A bounded LRU cache sits in
front of the store so status reads do not hit it on every request.
*/
package session
