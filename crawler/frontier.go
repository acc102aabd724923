package crawler

// frontier is the FIFO queue of canonical urls waiting to be crawled by a
// single site job, along with the set of urls ever enqueued. It is owned by
// one goroutine and needs no locking.
type frontier struct {
	queue   []string
	visited map[string]struct{}
}

func newFrontier(start string) *frontier {
	f := &frontier{visited: make(map[string]struct{})}
	f.push(start)

	return f
}

// push enqueues url unless it was enqueued before. It reports whether url
// was added.
func (f *frontier) push(url string) bool {
	if _, seen := f.visited[url]; seen {
		return false
	}

	f.visited[url] = struct{}{}
	f.queue = append(f.queue, url)

	return true
}

// pop dequeues the oldest url. ok is false when the queue is empty.
func (f *frontier) pop() (url string, ok bool) {
	if len(f.queue) == 0 {
		return "", false
	}

	url = f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]

	return url, true
}

func (f *frontier) len() int { return len(f.queue) }
