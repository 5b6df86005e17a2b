package graph

// IsConnected reports whether every vertex in vertices is reachable from the first one,
// treating each edge as undirected. Cycles and duplicate edges are fine; edges touching a
// vertex outside the set do not contribute to reachability. An empty vertex set is connected.
func IsConnected(vertices []int, edges []Edge) bool {
	if len(vertices) == 0 {
		return true
	}

	visited := make(map[int]bool, len(vertices))
	for _, v := range vertices {
		visited[v] = false
	}

	adj := make(map[int][]int, len(vertices))
	for _, e := range edges {
		if _, ok := visited[e.From]; !ok {
			continue
		}
		if _, ok := visited[e.To]; !ok {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	// iterative DFS over the adjacency lists
	stack := []int{vertices[0]}
	reached := 0
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[v] {
			continue
		}
		visited[v] = true
		reached++
		for _, u := range adj[v] {
			if !visited[u] {
				stack = append(stack, u)
			}
		}
	}

	return reached == len(visited)
}

// MaxDegree returns the largest number of edges incident to a single vertex.
// A self-loop counts twice, matching the usual degree definition.
func MaxDegree(edges []Edge) int {
	degree := make(map[int]int)
	best := 0
	for _, e := range edges {
		degree[e.From]++
		degree[e.To]++
		if degree[e.From] > best {
			best = degree[e.From]
		}
		if degree[e.To] > best {
			best = degree[e.To]
		}
	}
	return best
}
