package renderer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ── Shaders ───────────────────────────────────────────────────────────────────

// geometryVertSrc moves geometry to view space; the G-buffer stores
// view-space normals and positions so the SSAO and lighting passes need no
// matrix inversion.
const geometryVertSrc = `
#version 410 core
layout(location = 0) in vec3 in_position;
layout(location = 1) in vec3 in_normal;
layout(location = 2) in vec2 in_uv;

uniform mat4 model_matrix;
uniform mat4 view_matrix;
uniform mat4 projection_matrix;

out vec3 view_position;
out vec3 view_normal;
out vec2 uv;

void main() {
    mat4 model_view = view_matrix * model_matrix;
    vec4 p = model_view * vec4(in_position, 1.0);
    view_position = p.xyz;
    view_normal = mat3(transpose(inverse(model_view))) * in_normal;
    uv = in_uv;
    gl_Position = projection_matrix * p;
}
`

const geometryFragSrc = `
#version 410 core
in vec3 view_position;
in vec3 view_normal;
in vec2 uv;

uniform sampler2D diffuse_texture;
uniform int has_diffuse;

layout(location = 0) out vec4 out_color;
layout(location = 1) out vec4 out_normal;
layout(location = 2) out vec4 out_position;

void main() {
    out_color = has_diffuse == 1 ? vec4(texture(diffuse_texture, uv).rgb, 1.0) : vec4(1.0);
    out_normal = vec4(normalize(view_normal), 1.0);
    // The G-buffer clears to w = 0, so only covered pixels have w = 1.
    out_position = vec4(view_position, 1.0);
}
`

// quadVertSrc is shared by every full-screen pass.
const quadVertSrc = `
#version 410 core
layout(location = 0) in vec3 in_position;
layout(location = 2) in vec2 in_uv;

out vec2 uv;

void main() {
    uv = in_uv;
    gl_Position = vec4(in_position.xy, 0.0, 1.0);
}
`

const ssaoFragSrc = `
#version 410 core
in  vec2 uv;
out vec4 out_occlusion;

uniform sampler2D normal_texture;
uniform sampler2D position_texture;
uniform sampler2D noise_texture;
uniform sampler2D depth_texture;

uniform vec3  kernel[64];
uniform int   samples;
uniform float radius;
uniform float bias;
uniform float scale;
uniform mat4  projection_matrix;

void main() {
    vec4 pos = texture(position_texture, uv);
    if (pos.w == 0.0 || texture(depth_texture, uv).r >= 1.0) {
        out_occlusion = vec4(1.0);
        return;
    }

    vec3 n   = normalize(texture(normal_texture, uv).xyz);
    vec2 noise_scale = vec2(textureSize(position_texture, 0)) / vec2(textureSize(noise_texture, 0));
    vec3 rnd = texture(noise_texture, uv * noise_scale).xyz;
    vec3 t   = normalize(rnd - n * dot(rnd, n));
    mat3 tbn = mat3(t, cross(n, t), n);

    int count = clamp(samples, 0, 64);
    float occ = 0.0;
    for (int i = 0; i < count; i++) {
        vec3 s = pos.xyz + tbn * kernel[i] * radius;
        vec4 off = projection_matrix * vec4(s, 1.0);
        vec2 suv = clamp(off.xy / off.w * 0.5 + 0.5, 0.001, 0.999);
        float geo_z = texture(position_texture, suv).z;
        float range = smoothstep(0.0, 1.0, radius / max(abs(pos.z - geo_z), 0.0001));
        occ += (geo_z >= s.z + bias ? 1.0 : 0.0) * range;
    }

    float ao = count > 0 ? 1.0 - occ / float(count) : 1.0;
    out_occlusion = vec4(vec3(pow(ao, scale)), 1.0);
}
`

// blurFragSrc is a separable-weight Gaussian; blur_coefficient 0 passes the
// occlusion through, 36 gives a 13×13 kernel.
const blurFragSrc = `
#version 410 core
in  vec2 uv;
out vec4 out_occlusion;

uniform sampler2D ssao_texture;
uniform float blur_coefficient;

void main() {
    vec2 texel = 1.0 / vec2(textureSize(ssao_texture, 0));
    int r = int(clamp(blur_coefficient, 0.0, 36.0) / 6.0 + 0.5);
    float sigma = max(blur_coefficient / 12.0, 0.5);

    float sum = 0.0;
    float weights = 0.0;
    for (int x = -r; x <= r; x++) {
        for (int y = -r; y <= r; y++) {
            float w = exp(-float(x * x + y * y) / (2.0 * sigma * sigma));
            sum += texture(ssao_texture, uv + vec2(x, y) * texel).r * w;
            weights += w;
        }
    }
    out_occlusion = vec4(vec3(sum / weights), 1.0);
}
`

const lightingFragSrc = `
#version 410 core
in  vec2 uv;
out vec4 out_frag_color;

uniform sampler2D material_texture;
uniform sampler2D normal_texture;
uniform sampler2D depth_texture;
uniform sampler2D position_texture;

uniform mat4  view_matrix;
uniform vec3  light_position;
uniform vec3  light_color;
uniform float light_intensity;

void main() {
    if (texture(depth_texture, uv).r >= 1.0) {
        discard;
    }
    vec3 albedo = texture(material_texture, uv).rgb;
    vec3 n      = normalize(texture(normal_texture, uv).xyz);
    vec3 p      = texture(position_texture, uv).xyz;

    vec3 l = (view_matrix * vec4(light_position, 1.0)).xyz - p;
    float d = length(l);
    l /= d;
    vec3 h = normalize(l + normalize(-p));

    float diffuse  = max(dot(n, l), 0.0);
    float specular = pow(max(dot(n, h), 0.0), 32.0) * 0.3;
    float falloff  = light_intensity / (1.0 + d * d);

    out_frag_color = vec4((albedo * diffuse + specular) * light_color * falloff, 1.0);
}
`

const blendFragSrc = `
#version 410 core
in  vec2 uv;
out vec4 out_color;

uniform sampler2D color_texture;
uniform sampler2D occlusion_texture;

void main() {
    out_color = vec4(texture(color_texture, uv).rgb * texture(occlusion_texture, uv).r, 1.0);
}
`

// compositeFragSrc takes red from the left image and green/blue from the
// right one. Side-by-side binds the same image to both units, which
// reproduces it unchanged.
const compositeFragSrc = `
#version 410 core
in  vec2 uv;
out vec4 color;

uniform sampler2D left_texture;
uniform sampler2D right_texture;

void main() {
    vec3 l = texture(left_texture, uv).rgb;
    vec3 r = texture(right_texture, uv).rgb;
    color = vec4(clamp(vec3(l.r, r.g, r.b), 0.0, 1.0), 1.0);
}
`

// ── Program table ─────────────────────────────────────────────────────────────

type programKind int

const (
	progGeometry programKind = iota
	progSSAO
	progBlur
	progLighting
	progBlend
	progComposite
	programCount
)

// programSpec describes one program. Samplers are assigned texture units in
// list order; passes bind their inputs in the same order.
type programSpec struct {
	name     string
	vert     string
	frag     string
	samplers []string
	uniforms []string
}

var programTable = [programCount]programSpec{
	progGeometry: {
		name:     "geometry",
		vert:     "geometry.vert",
		frag:     "geometry.frag",
		samplers: []string{"diffuse_texture"},
		uniforms: []string{"model_matrix", "view_matrix", "projection_matrix", "has_diffuse"},
	},
	progSSAO: {
		name:     "ssao",
		vert:     "quad.vert",
		frag:     "ssao.frag",
		samplers: []string{"normal_texture", "position_texture", "noise_texture", "depth_texture"},
		uniforms: []string{"kernel", "samples", "radius", "bias", "scale",
			"model_matrix", "view_matrix", "projection_matrix"},
	},
	progBlur: {
		name:     "blur",
		vert:     "quad.vert",
		frag:     "blur.frag",
		samplers: []string{"ssao_texture"},
		uniforms: []string{"blur_coefficient"},
	},
	progLighting: {
		name:     "lighting",
		vert:     "quad.vert",
		frag:     "lighting.frag",
		samplers: []string{"material_texture", "normal_texture", "depth_texture", "position_texture"},
		uniforms: []string{"view_matrix", "projection_matrix", "light_position", "light_color", "light_intensity"},
	},
	progBlend: {
		name:     "blend",
		vert:     "quad.vert",
		frag:     "blend.frag",
		samplers: []string{"color_texture", "occlusion_texture"},
	},
	progComposite: {
		name:     "composite",
		vert:     "quad.vert",
		frag:     "composite.frag",
		samplers: []string{"left_texture", "right_texture"},
	},
}

// ── Sources ───────────────────────────────────────────────────────────────────

// ShaderSources maps shader file names ("geometry.vert", "ssao.frag", ...)
// to GLSL source.
type ShaderSources map[string]string

var builtinShaders = ShaderSources{
	"geometry.vert":  geometryVertSrc,
	"geometry.frag":  geometryFragSrc,
	"quad.vert":      quadVertSrc,
	"ssao.frag":      ssaoFragSrc,
	"blur.frag":      blurFragSrc,
	"lighting.frag":  lightingFragSrc,
	"blend.frag":     blendFragSrc,
	"composite.frag": compositeFragSrc,
}

// DefaultShaderSources returns a copy of the built-in shaders.
func DefaultShaderSources() ShaderSources {
	out := make(ShaderSources, len(builtinShaders))
	for k, v := range builtinShaders {
		out[k] = v
	}
	return out
}

// LoadShaderSources starts from the built-in shaders and replaces each one
// for which dir holds a file of the same name. An empty dir returns the
// built-ins.
func LoadShaderSources(dir string) (ShaderSources, error) {
	out := DefaultShaderSources()
	if dir == "" {
		return out, nil
	}
	for name := range out {
		src, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read shader %q: %w", name, err)
		}
		out[name] = string(src)
	}
	return out, nil
}
