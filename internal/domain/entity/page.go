package entity

type Point struct {
	X int
	Y int
}

type Size struct {
	Width  int
	Height int
}

type Rect struct {
	Point
	Size
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
