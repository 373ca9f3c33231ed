package element

// ElementProperties contains metadata describing an element type
type ElementProperties struct {
	Name       string // Full descriptive name (e.g., "Linear Elastic Tetrahedron")
	ShortName  string // Abbreviated name (e.g., "Tet4")
	Order      int    // Polynomial order of the displacement field
	Np         int    // Total number of nodes in element
	NFaces     int    // Number of faces in each element
	NEdges     int    // Number of edges in each element
	DOFPerNode int    // Displacement components per node
}

// TetFaces lists the local vertices of each tetrahedron face, ordered so the
// right-hand normal points away from the opposite vertex for a positively
// oriented tet
var TetFaces = [4][3]int{
	{0, 2, 1}, // Face 0, opposite vertex 3
	{0, 1, 3}, // Face 1, opposite vertex 2
	{1, 2, 3}, // Face 2, opposite vertex 0
	{0, 3, 2}, // Face 3, opposite vertex 1
}

// TetOpposite is the local vertex not on each face of TetFaces
var TetOpposite = [4]int{3, 2, 0, 1}
