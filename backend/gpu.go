package backend

import (
	"sync"

	"gonum.org/v1/gonum/mat"
)

// gpu keeps real and imaginary parts in separate planes. A complex product
// (A+iB)(C+iD) becomes AC-BD + i(AD+BC); the four real products run
// concurrently and are joined before the planes are combined.
type gpu struct{}

type planarDense struct {
	re, im *mat.Dense
}

func (d *planarDense) Dims() (int, int) { return d.re.Dims() }

func (d *planarDense) At(i, j int) complex128 {
	return complex(d.re.At(i, j), d.im.At(i, j))
}

func (d *planarDense) Backend() Name { return GPU }

func (d *planarDense) Data() []complex128 {
	re, im := d.re.RawMatrix(), d.im.RawMatrix()
	out := make([]complex128, re.Rows*re.Cols)
	for i := 0; i < re.Rows; i++ {
		for j := 0; j < re.Cols; j++ {
			out[i*re.Cols+j] = complex(re.Data[i*re.Stride+j], im.Data[i*im.Stride+j])
		}
	}
	return out
}

func (gpu) Name() Name { return GPU }

func (gpu) New(r, c int, data []complex128) Dense {
	re := make([]float64, r*c)
	im := make([]float64, r*c)
	for i, v := range data {
		re[i] = real(v)
		im[i] = imag(v)
	}
	return &planarDense{re: mat.NewDense(r, c, re), im: mat.NewDense(r, c, im)}
}

func (b gpu) Zeros(r, c int) Dense {
	return b.New(r, c, nil)
}

func (gpu) Identity(n int) Dense {
	re := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		re.Set(i, i, 1)
	}
	return &planarDense{re: re, im: mat.NewDense(n, n, nil)}
}

func (b gpu) Import(d Dense) Dense {
	if pd, ok := d.(*planarDense); ok {
		return pd
	}
	r, c := d.Dims()
	return b.New(r, c, d.Data())
}

func (b gpu) planes(d Dense) *planarDense {
	return b.Import(d).(*planarDense)
}

// products evaluates the four cross terms of x⊙y, where op is a real
// bilinear operation (matrix product or Kronecker product).
func products(x, y *planarDense, op func(dst *mat.Dense, a, b mat.Matrix)) *planarDense {
	var rr, ii, ri, ir mat.Dense
	var wg sync.WaitGroup
	wg.Go(func() { op(&rr, x.re, y.re) })
	wg.Go(func() { op(&ii, x.im, y.im) })
	wg.Go(func() { op(&ri, x.re, y.im) })
	wg.Go(func() { op(&ir, x.im, y.re) })
	wg.Wait()

	var re, im mat.Dense
	re.Sub(&rr, &ii)
	im.Add(&ri, &ir)
	return &planarDense{re: &re, im: &im}
}

func (b gpu) Kron(x, y Dense) Dense {
	return products(b.planes(x), b.planes(y), func(dst *mat.Dense, a, c mat.Matrix) {
		dst.Kronecker(a, c)
	})
}

func (b gpu) MatMul(x, y Dense) (Dense, error) {
	if _, _, _, err := checkMul(x, y); err != nil {
		return nil, err
	}
	return products(b.planes(x), b.planes(y), func(dst *mat.Dense, a, c mat.Matrix) {
		dst.Mul(a, c)
	}), nil
}

func (b gpu) Add(x, y Dense) (Dense, error) {
	if _, _, err := checkSame(x, y); err != nil {
		return nil, err
	}
	p, q := b.planes(x), b.planes(y)
	var re, im mat.Dense
	re.Add(p.re, q.re)
	im.Add(p.im, q.im)
	return &planarDense{re: &re, im: &im}, nil
}
